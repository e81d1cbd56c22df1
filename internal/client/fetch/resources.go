package fetch

import (
	"context"
	"fmt"

	"github.com/atinyakov/MineAdmin/internal/client/api"
	"github.com/atinyakov/MineAdmin/internal/models"
)

// ProductAPI is the product part of the backend client.
type ProductAPI interface {
	GetProducts(ctx context.Context, params api.Params) (api.Page[models.Product], error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	CreateProduct(ctx context.Context, p models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, id string, p models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

// OrderAPI is the order part of the backend client.
type OrderAPI interface {
	GetOrders(ctx context.Context, params api.Params) (api.Page[models.Order], error)
	GetOrder(ctx context.Context, id string) (models.Order, error)
	CreateOrder(ctx context.Context, o models.Order) (models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus, note string) (models.Order, error)
}

// BranchAPI is the branch part of the backend client.
type BranchAPI interface {
	GetBranches(ctx context.Context, params api.Params) (api.Page[models.Branch], error)
	GetBranch(ctx context.Context, id string) (models.Branch, error)
	CreateBranch(ctx context.Context, b models.Branch) (models.Branch, error)
	UpdateBranch(ctx context.Context, id string, b models.Branch) (models.Branch, error)
	DeleteBranch(ctx context.Context, id string) error
}

// UserAPI is the user administration part of the backend client.
type UserAPI interface {
	GetUsers(ctx context.Context, params api.Params) (api.Page[models.User], error)
	GetUser(ctx context.Context, id string) (models.User, error)
	CreateUser(ctx context.Context, u models.User) (models.User, error)
	UpdateUser(ctx context.Context, id string, u models.User) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// CategoryAPI is the category part of the backend client.
type CategoryAPI interface {
	GetCategories(ctx context.Context, params api.Params) (api.Page[models.Category], error)
	CreateCategory(ctx context.Context, c models.Category) (models.Category, error)
	UpdateCategory(ctx context.Context, id string, c models.Category) (models.Category, error)
	DeleteCategory(ctx context.Context, id string) error
}

// API is every resource ResourceFor can bind. *api.Client implements it.
type API interface {
	ProductAPI
	OrderAPI
	BranchAPI
	UserAPI
	CategoryAPI
}

// Resource names accepted by ResourceFor.
const (
	ResourceProducts   = "products"
	ResourceOrders     = "orders"
	ResourceBranches   = "branches"
	ResourceUsers      = "users"
	ResourceCategories = "categories"
)

func Products(c ProductAPI) Resource[models.Product] {
	return Resource[models.Product]{
		Name:   ResourceProducts,
		List:   c.GetProducts,
		Get:    c.GetProduct,
		Create: c.CreateProduct,
		Update: c.UpdateProduct,
		Remove: c.DeleteProduct,
	}
}

// Orders binds orders. Updating an order changes its status; orders are
// never deleted.
func Orders(c OrderAPI) Resource[models.Order] {
	return Resource[models.Order]{
		Name:   ResourceOrders,
		List:   c.GetOrders,
		Get:    c.GetOrder,
		Create: c.CreateOrder,
		Update: func(ctx context.Context, id string, o models.Order) (models.Order, error) {
			return c.UpdateOrderStatus(ctx, id, o.Status, "")
		},
		Remove: func(context.Context, string) error {
			return &UnsupportedError{Resource: ResourceOrders, Operation: "deleted"}
		},
	}
}

func Branches(c BranchAPI) Resource[models.Branch] {
	return Resource[models.Branch]{
		Name:   ResourceBranches,
		List:   c.GetBranches,
		Get:    c.GetBranch,
		Create: c.CreateBranch,
		Update: c.UpdateBranch,
		Remove: c.DeleteBranch,
	}
}

func Users(c UserAPI) Resource[models.User] {
	return Resource[models.User]{
		Name:   ResourceUsers,
		List:   c.GetUsers,
		Get:    c.GetUser,
		Create: c.CreateUser,
		Update: c.UpdateUser,
		Remove: c.DeleteUser,
	}
}

// Categories binds categories. There is no single-category endpoint.
func Categories(c CategoryAPI) Resource[models.Category] {
	return Resource[models.Category]{
		Name:   ResourceCategories,
		List:   c.GetCategories,
		Create: c.CreateCategory,
		Update: c.UpdateCategory,
		Remove: c.DeleteCategory,
	}
}

// ResourceFor looks up a resource by name. It fails for unknown names and
// when T is not the record type of the named resource.
func ResourceFor[T models.Entity](name string, c API) (Resource[T], error) {
	var res any
	switch name {
	case ResourceProducts:
		res = Products(c)
	case ResourceOrders:
		res = Orders(c)
	case ResourceBranches:
		res = Branches(c)
	case ResourceUsers:
		res = Users(c)
	case ResourceCategories:
		res = Categories(c)
	default:
		return Resource[T]{}, fmt.Errorf("unknown resource %q", name)
	}

	typed, ok := res.(Resource[T])
	if !ok {
		var zero T
		return Resource[T]{}, fmt.Errorf("resource %q does not hold %T records", name, zero)
	}
	return typed, nil
}
