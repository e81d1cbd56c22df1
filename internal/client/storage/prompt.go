package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrEmptyInput is returned when the user submits an empty credential.
var ErrEmptyInput = errors.New("empty input")

// PromptCredentials asks for an e-mail (unless one is given) and a password.
func PromptCredentials(in io.Reader, out io.Writer, email string) (string, string, error) {
	scanner := bufio.NewScanner(in)

	if email == "" {
		fmt.Fprint(out, "Email: ")
		if !scanner.Scan() {
			return "", "", ErrEmptyInput
		}
		email = strings.TrimSpace(scanner.Text())
		if email == "" {
			return "", "", ErrEmptyInput
		}
	}

	fmt.Fprint(out, "Password: ")
	if !scanner.Scan() {
		return "", "", ErrEmptyInput
	}
	password := strings.TrimRight(scanner.Text(), "\r\n")
	if password == "" {
		return "", "", ErrEmptyInput
	}
	return email, password, nil
}

// Confirm asks a yes/no question and reports whether the answer was yes.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
	case "y", "yes":
		return true
	}
	return false
}
