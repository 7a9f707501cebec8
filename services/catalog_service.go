package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
	"yeshivashop_server/database"
	"yeshivashop_server/lib"
	"yeshivashop_server/structs"
	"yeshivashop_server/structs/tables"

	"github.com/MonkyMars/gecho"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const (
	catalogKeyPrefix      = "catalog:"
	catalogCategoriesKey  = catalogKeyPrefix + "categories"
	catalogProductsPrefix = catalogKeyPrefix + "products:"
	catalogProductPrefix  = catalogKeyPrefix + "product:"
)

// CatalogService serves the public storefront reads through the cache.
type CatalogService struct {
	logger *gecho.Logger
	db     bun.IDB
	cache  Cache
	ttl    time.Duration
}

func NewCatalogService(logger *gecho.Logger, cfg *structs.Config, db bun.IDB, cache Cache) *CatalogService {
	return &CatalogService{
		logger: logger,
		db:     db,
		cache:  cache,
		ttl:    cfg.Cache.CatalogTTL,
	}
}

// ListCategories returns every category flat and as a tree.
func (cs *CatalogService) ListCategories(ctx context.Context) (*structs.CategoryListing, error) {
	if cached := cs.cached(ctx, catalogCategoriesKey); cached != "" {
		var listing structs.CategoryListing
		if err := json.Unmarshal([]byte(cached), &listing); err == nil {
			return &listing, nil
		}
	}

	categories, err := cs.allCategories(ctx)
	if err != nil {
		return nil, err
	}

	listing := &structs.CategoryListing{
		Categories: make([]structs.CategoryFlat, 0, len(categories)),
		Tree:       buildCategoryTree(categories),
	}
	for _, c := range categories {
		listing.Categories = append(listing.Categories, structs.CategoryFlat{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			ParentID: c.ParentID,
		})
	}

	cs.store(ctx, catalogCategoriesKey, listing)
	return listing, nil
}

// ListProducts filters by category (slug or id, including subcategories),
// supplier and a case-insensitive name search.
func (cs *CatalogService) ListProducts(ctx context.Context, filter *structs.CatalogFilter) ([]tables.Product, error) {
	if filter == nil {
		filter = &structs.CatalogFilter{}
	}

	key := catalogProductsPrefix + filterKey(filter)
	if cached := cs.cached(ctx, key); cached != "" {
		var products []tables.Product
		if err := json.Unmarshal([]byte(cached), &products); err == nil {
			return products, nil
		}
	}

	query := database.Query[tables.Product](cs.db).With("Category").OrderBy("p.name", database.ASC)

	if filter.Category != "" {
		categories, err := cs.allCategories(ctx)
		if err != nil {
			return nil, err
		}
		root := findCategory(categories, filter.Category)
		if root == nil {
			return []tables.Product{}, nil
		}
		query = query.WhereIn("p.category_id", descendantIDs(categories, root.ID))
	}
	if filter.SupplierID != nil {
		query = query.Where("p.supplier_id", *filter.SupplierID)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.WhereILike("p.name", search)
	}

	products, err := query.All(ctx)
	if err != nil {
		cs.logger.Error("Failed to list products", gecho.Field("error", err))
		return nil, err
	}

	cs.store(ctx, key, products)
	return products, nil
}

func (cs *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*tables.Product, error) {
	key := catalogProductPrefix + id.String()
	if cached := cs.cached(ctx, key); cached != "" {
		var product tables.Product
		if err := json.Unmarshal([]byte(cached), &product); err == nil {
			return &product, nil
		}
	}

	product, err := database.FindByID[tables.Product](ctx, cs.db, id, "Category")
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, lib.ErrNotFound
	}

	cs.store(ctx, key, product)
	return product, nil
}

// Invalidate drops every cached catalog entry. Called after admin writes.
func (cs *CatalogService) Invalidate(ctx context.Context) {
	if cs.cache == nil {
		return
	}
	if err := cs.cache.DeletePattern(ctx, catalogKeyPrefix+"*"); err != nil {
		cs.logger.Warn("Failed to invalidate catalog cache", gecho.Field("error", err))
	}
}

func (cs *CatalogService) allCategories(ctx context.Context) ([]tables.Category, error) {
	return database.Query[tables.Category](cs.db).OrderBy("c.name", database.ASC).All(ctx)
}

func (cs *CatalogService) cached(ctx context.Context, key string) string {
	if cs.cache == nil {
		return ""
	}
	val, err := cs.cache.Get(ctx, key)
	if err != nil {
		cs.logger.Warn("Catalog cache read failed", gecho.Field("key", key), gecho.Field("error", err))
		return ""
	}
	return val
}

func (cs *CatalogService) store(ctx context.Context, key string, value any) {
	if cs.cache == nil || cs.ttl <= 0 {
		return
	}
	if err := setJSON(ctx, cs.cache, key, value, cs.ttl); err != nil {
		cs.logger.Warn("Catalog cache write failed", gecho.Field("key", key), gecho.Field("error", err))
	}
}

func filterKey(filter *structs.CatalogFilter) string {
	supplier := ""
	if filter.SupplierID != nil {
		supplier = filter.SupplierID.String()
	}
	raw := fmt.Sprintf("%s|%s|%s", filter.Category, supplier, strings.ToLower(strings.TrimSpace(filter.Search)))
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:8])
}

// findCategory matches by id first, then by slug.
func findCategory(categories []tables.Category, ref string) *tables.Category {
	if id, err := uuid.Parse(ref); err == nil {
		for i := range categories {
			if categories[i].ID == id {
				return &categories[i]
			}
		}
		return nil
	}
	for i := range categories {
		if categories[i].Slug != nil && *categories[i].Slug == ref {
			return &categories[i]
		}
	}
	return nil
}

// descendantIDs returns root and every category below it.
func descendantIDs(categories []tables.Category, root uuid.UUID) []uuid.UUID {
	children := make(map[uuid.UUID][]uuid.UUID)
	for _, c := range categories {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	seen := map[uuid.UUID]bool{root: true}
	out := []uuid.UUID{root}
	for i := 0; i < len(out); i++ {
		for _, child := range children[out[i]] {
			if !seen[child] {
				seen[child] = true
				out = append(out, child)
			}
		}
	}
	return out
}

// buildCategoryTree nests categories under their parents. Orphans become roots.
func buildCategoryTree(categories []tables.Category) []*structs.CategoryNode {
	nodes := make(map[uuid.UUID]*structs.CategoryNode, len(categories))
	for _, c := range categories {
		nodes[c.ID] = &structs.CategoryNode{
			ID:       c.ID,
			Name:     c.Name,
			Slug:     c.Slug,
			ParentID: c.ParentID,
			Children: []*structs.CategoryNode{},
		}
	}

	roots := []*structs.CategoryNode{}
	for _, c := range categories {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok && *c.ParentID != c.ID {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}

	var sortNodes func([]*structs.CategoryNode)
	sortNodes = func(list []*structs.CategoryNode) {
		sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
		for _, n := range list {
			sortNodes(n.Children)
		}
	}
	sortNodes(roots)

	return roots
}

// wouldCreateCycle reports whether making parentID the parent of id would
// put id among its own ancestors.
func wouldCreateCycle(categories []tables.Category, id, parentID uuid.UUID) bool {
	if id == parentID {
		return true
	}

	parents := make(map[uuid.UUID]*uuid.UUID, len(categories))
	for _, c := range categories {
		parents[c.ID] = c.ParentID
	}

	seen := map[uuid.UUID]bool{}
	for cur := &parentID; cur != nil; cur = parents[*cur] {
		if *cur == id {
			return true
		}
		if seen[*cur] {
			return false
		}
		seen[*cur] = true
	}
	return false
}
