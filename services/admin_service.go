package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"yeshivashop_server/database"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"
)

// AdminService implements the back-office writes over the shared reference
// data. Deletes never cascade; a referenced row yields a ConstraintError.
type AdminService struct {
	logger   *gecho.Logger
	db       bun.IDB
	catalog  *CatalogService
	profiles *ProfileService
}

func NewAdminService(logger *gecho.Logger, db bun.IDB, catalog *CatalogService, profiles *ProfileService) *AdminService {
	return &AdminService{
		logger:   logger,
		db:       db,
		catalog:  catalog,
		profiles: profiles,
	}
}

func (as *AdminService) invalidate(ctx context.Context) {
	if as.catalog != nil {
		as.catalog.Invalidate(ctx)
	}
}

// Products

func (as *AdminService) ListProducts(ctx context.Context) ([]tables.Product, error) {
	return database.Query[tables.Product](as.db).
		With("Category").
		With("Supplier").
		OrderBy("p.name", database.ASC).
		All(ctx)
}

func (as *AdminService) validateProduct(ctx context.Context, req *structs.ProductRequest) error {
	ve := &lib.ValidationError{}
	if err := lib.ValidateStruct(req); err != nil {
		var fieldErr *lib.ValidationError
		if !errors.As(err, &fieldErr) {
			return err
		}
		ve.Errors = append(ve.Errors, fieldErr.Errors...)
	}
	if strings.TrimSpace(req.Name) == "" && len(ve.Errors) == 0 {
		ve.Add("name", "is required")
	}
	if !req.Price.IsPositive() {
		ve.Add("price", "must be greater than 0")
	}
	if req.SupplierID != uuid.Nil {
		exists, err := database.Query[tables.Supplier](as.db).Where("s.id", req.SupplierID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			ve.Add("supplier_id", "does not exist")
		}
	}
	if req.CategoryID != nil {
		exists, err := database.Query[tables.Category](as.db).Where("c.id", *req.CategoryID).Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			ve.Add("category_id", "does not exist")
		}
	}
	return ve.OrNil()
}

func (as *AdminService) CreateProduct(ctx context.Context, req *structs.ProductRequest) (*tables.Product, error) {
	if err := as.validateProduct(ctx, req); err != nil {
		return nil, err
	}

	product := &tables.Product{
		Name:       strings.TrimSpace(req.Name),
		Price:      req.Price.Round(2),
		CategoryID: req.CategoryID,
		SupplierID: req.SupplierID,
		ImageURL:   req.ImageURL,
	}

	created, err := database.Query[tables.Product](as.db).Insert(ctx, product)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	as.invalidate(ctx)
	as.logger.Info("Product created", gecho.Field("product_id", created.ID))
	return created, nil
}

func (as *AdminService) UpdateProduct(ctx context.Context, id uuid.UUID, req *structs.ProductRequest) (*tables.Product, error) {
	if err := as.validateProduct(ctx, req); err != nil {
		return nil, err
	}

	product := &tables.Product{
		Name:       strings.TrimSpace(req.Name),
		Price:      req.Price.Round(2),
		CategoryID: req.CategoryID,
		SupplierID: req.SupplierID,
		ImageURL:   req.ImageURL,
		UpdatedAt:  time.Now(),
	}

	updated, err := database.Query[tables.Product](as.db).
		Where("p.id", id).
		UpdateColumns(ctx, product, "name", "price", "category_id", "supplier_id", "image_url", "updated_at")
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if updated == nil {
		return nil, lib.ErrNotFound
	}

	as.invalidate(ctx)
	return updated, nil
}

func (as *AdminService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	referenced, err := database.Query[tables.OrderItem](as.db).Where("oi.product_id", id).Exists(ctx)
	if err != nil {
		return err
	}
	if referenced {
		return lib.NewConstraintError("product", "cannot delete a product referenced by existing orders")
	}

	deleted, err := database.Query[tables.Product](as.db).Where("p.id", id).Delete(ctx)
	if err != nil {
		if lib.IsConstraintViolation(lib.MapPgError(err)) {
			return lib.NewConstraintError("product", "cannot delete a product referenced by existing orders")
		}
		return err
	}
	if deleted == 0 {
		return lib.ErrNotFound
	}

	as.invalidate(ctx)
	as.logger.Info("Product deleted", gecho.Field("product_id", id))
	return nil
}

// Suppliers

func (as *AdminService) ListSuppliers(ctx context.Context) ([]tables.Supplier, error) {
	return database.Query[tables.Supplier](as.db).OrderBy("s.name", database.ASC).All(ctx)
}

func normalizeEmail(email *string) *string {
	if email == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*email)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (as *AdminService) CreateSupplier(ctx context.Context, req *structs.SupplierRequest) (*tables.Supplier, error) {
	req.Email = normalizeEmail(req.Email)
	if err := lib.ValidateStruct(req); err != nil {
		return nil, err
	}

	supplier := &tables.Supplier{Name: strings.TrimSpace(req.Name), Email: req.Email}
	created, err := database.Query[tables.Supplier](as.db).Insert(ctx, supplier)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	as.invalidate(ctx)
	return created, nil
}

func (as *AdminService) UpdateSupplier(ctx context.Context, id uuid.UUID, req *structs.SupplierRequest) (*tables.Supplier, error) {
	req.Email = normalizeEmail(req.Email)
	if err := lib.ValidateStruct(req); err != nil {
		return nil, err
	}

	updated, err := database.Query[tables.Supplier](as.db).
		Where("s.id", id).
		UpdateColumns(ctx, &tables.Supplier{Name: strings.TrimSpace(req.Name), Email: req.Email}, "name", "email")
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if updated == nil {
		return nil, lib.ErrNotFound
	}

	as.invalidate(ctx)
	return updated, nil
}

func (as *AdminService) DeleteSupplier(ctx context.Context, id uuid.UUID) error {
	inUse, err := database.Query[tables.Product](as.db).Where("p.supplier_id", id).Exists(ctx)
	if err != nil {
		return err
	}
	if inUse {
		return lib.NewConstraintError("supplier", "cannot delete a supplier that still has products")
	}

	deleted, err := database.Query[tables.Supplier](as.db).Where("s.id", id).Delete(ctx)
	if err != nil {
		if lib.IsConstraintViolation(lib.MapPgError(err)) {
			return lib.NewConstraintError("supplier", "cannot delete a supplier that still has products")
		}
		return err
	}
	if deleted == 0 {
		return lib.ErrNotFound
	}

	as.invalidate(ctx)
	return nil
}

// Categories

func (as *AdminService) ListCategories(ctx context.Context) ([]tables.Category, error) {
	return database.Query[tables.Category](as.db).OrderBy("c.name", database.ASC).All(ctx)
}

func normalizeSlug(slug *string) *string {
	if slug == nil {
		return nil
	}
	trimmed := strings.ToLower(strings.TrimSpace(*slug))
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func (as *AdminService) CreateCategory(ctx context.Context, req *structs.CategoryRequest) (*tables.Category, error) {
	req.Slug = normalizeSlug(req.Slug)
	if err := lib.ValidateStruct(req); err != nil {
		return nil, err
	}
	if req.ParentID != nil {
		exists, err := database.Query[tables.Category](as.db).Where("c.id", *req.ParentID).Exists(ctx)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, lib.NewValidationError("parent_id", "does not exist")
		}
	}

	category := &tables.Category{Name: strings.TrimSpace(req.Name), ParentID: req.ParentID, Slug: req.Slug}
	created, err := database.Query[tables.Category](as.db).Insert(ctx, category)
	if err != nil {
		return nil, lib.MapPgError(err)
	}

	as.invalidate(ctx)
	return created, nil
}

// UpdateCategory rejects a parent that is the category itself or one of its descendants.
func (as *AdminService) UpdateCategory(ctx context.Context, id uuid.UUID, req *structs.CategoryRequest) (*tables.Category, error) {
	req.Slug = normalizeSlug(req.Slug)
	if err := lib.ValidateStruct(req); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		categories, err := as.ListCategories(ctx)
		if err != nil {
			return nil, err
		}
		if findCategory(categories, req.ParentID.String()) == nil {
			return nil, lib.NewValidationError("parent_id", "does not exist")
		}
		if wouldCreateCycle(categories, id, *req.ParentID) {
			return nil, lib.NewValidationError("parent_id", "cannot be the category itself or one of its subcategories")
		}
	}

	updated, err := database.Query[tables.Category](as.db).
		Where("c.id", id).
		UpdateColumns(ctx, &tables.Category{Name: strings.TrimSpace(req.Name), ParentID: req.ParentID, Slug: req.Slug}, "name", "parent_id", "slug")
	if err != nil {
		return nil, lib.MapPgError(err)
	}
	if updated == nil {
		return nil, lib.ErrNotFound
	}

	as.invalidate(ctx)
	return updated, nil
}

func (as *AdminService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	hasChildren, err := database.Query[tables.Category](as.db).Where("c.parent_id", id).Exists(ctx)
	if err != nil {
		return err
	}
	if hasChildren {
		return lib.NewConstraintError("category", "cannot delete a category that has subcategories")
	}

	hasProducts, err := database.Query[tables.Product](as.db).Where("p.category_id", id).Exists(ctx)
	if err != nil {
		return err
	}
	if hasProducts {
		return lib.NewConstraintError("category", "cannot delete a category that still has products")
	}

	deleted, err := database.Query[tables.Category](as.db).Where("c.id", id).Delete(ctx)
	if err != nil {
		if lib.IsConstraintViolation(lib.MapPgError(err)) {
			return lib.NewConstraintError("category", "cannot delete a category that is still referenced")
		}
		return err
	}
	if deleted == 0 {
		return lib.ErrNotFound
	}

	as.invalidate(ctx)
	return nil
}

// Orders and summary

func (as *AdminService) ListOrders(ctx context.Context) ([]tables.Order, error) {
	orders, err := database.Query[tables.Order](as.db).
		With("Profile").
		With("Items.Product").
		OrderBy("o.created_at", database.DESC).
		All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		if err := as.revealProfile(&orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (as *AdminService) GetOrder(ctx context.Context, id uuid.UUID) (*tables.Order, error) {
	order, err := database.FindByID[tables.Order](ctx, as.db, id, "Profile", "Items.Product")
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, lib.ErrNotFound
	}
	if err := as.revealProfile(order); err != nil {
		return nil, err
	}
	return order, nil
}

// revealProfile decrypts the customer profile joined onto an order. Without a
// profile service the encrypted columns are blanked instead.
func (as *AdminService) revealProfile(order *tables.Order) error {
	stored := order.Profile
	if stored == nil {
		return nil
	}
	if as.profiles == nil {
		stored.InstitutionAddress = ""
		stored.ResponsiblePhone = ""
		return nil
	}
	decrypted, err := as.profiles.decrypt(stored)
	if err != nil {
		return fmt.Errorf("order %s profile: %w", order.ID, err)
	}
	order.Profile = decrypted
	return nil
}

// Summary counts the main tables concurrently.
func (as *AdminService) Summary(ctx context.Context) (*structs.AdminSummary, error) {
	summary := &structs.AdminSummary{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		summary.Products, err = database.Query[tables.Product](as.db).Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Suppliers, err = database.Query[tables.Supplier](as.db).Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Categories, err = database.Query[tables.Category](as.db).Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Orders, err = database.Query[tables.Order](as.db).Count(ctx)
		return err
	})
	g.Go(func() (err error) {
		summary.Users, err = database.Query[tables.Profile](as.db).Count(ctx)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return summary, nil
}
