package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/restaurant-ordering/database"
	"github.com/yeremiapane/restaurant-ordering/models"
	"github.com/yeremiapane/restaurant-ordering/utils"
)

type CategoryInput struct {
	Name                 string   `json:"name"`
	AllowedPortionLabels []string `json:"allowedPortionLabels"`
}

// CategoryPatch leaves nil fields unchanged.
type CategoryPatch struct {
	Name                 *string   `json:"name"`
	AllowedPortionLabels *[]string `json:"allowedPortionLabels"`
}

type MenuInput struct {
	ID          string         `json:"id,omitempty"`
	CategoryID  string         `json:"categoryId"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image,omitempty"`
	Price       *float64       `json:"price"`
	Portions    []PortionInput `json:"portions"`
	Available   *bool          `json:"available"`
}

type PortionView struct {
	models.Portion
	EffectivePrice float64 `json:"effectivePrice"`
}

// MenuItemView is the storefront shape of a menu item.
type MenuItemView struct {
	models.Menu
	Portions []PortionView `json:"portions"`
}

func NewMenuItemView(menu models.Menu) MenuItemView {
	view := MenuItemView{Menu: menu, Portions: make([]PortionView, 0, len(menu.Portions))}
	for _, p := range menu.Portions {
		view.Portions = append(view.Portions, PortionView{
			Portion:        p,
			EffectivePrice: EffectivePrice(p.BasePrice, p.Discount),
		})
	}
	return view
}

type CatalogService struct {
	store database.CatalogStore
	now   func() time.Time
	log   *logrus.Entry
}

func NewCatalogService(store database.CatalogStore) *CatalogService {
	return &CatalogService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		log:   utils.Component("catalog"),
	}
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.MenuCategory, error) {
	cats, err := s.store.ListCategories(ctx)
	return cats, storeError(err, "categories")
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.MenuCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationError("category name is required")
	}

	now := s.now()
	cat := &models.MenuCategory{
		ID:                   utils.NewID(),
		Name:                 name,
		NameKey:              strings.ToLower(name),
		AllowedPortionLabels: cleanLabels(in.AllowedPortionLabels),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.CreateCategory(ctx, cat); err != nil {
		return nil, storeError(err, fmt.Sprintf("category %q", name))
	}
	s.log.WithField("category_id", cat.ID).Info("Category created")
	return cat, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, patch CategoryPatch) (*models.MenuCategory, error) {
	cat, err := s.findCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationError("category name is required")
		}
		cat.Name = name
		cat.NameKey = strings.ToLower(name)
	}
	if patch.AllowedPortionLabels != nil {
		cat.AllowedPortionLabels = cleanLabels(*patch.AllowedPortionLabels)
	}
	cat.UpdatedAt = s.now()

	if err := s.store.UpdateCategory(ctx, cat); err != nil {
		return nil, storeError(err, fmt.Sprintf("category %q", cat.Name))
	}
	return cat, nil
}

func (s *CatalogService) ListMenu(ctx context.Context, categoryID string) ([]MenuItemView, error) {
	menus, err := s.store.ListMenus(ctx, strings.TrimSpace(categoryID))
	if err != nil {
		return nil, storeError(err, "menus")
	}
	views := make([]MenuItemView, 0, len(menus))
	for _, m := range menus {
		views = append(views, NewMenuItemView(m))
	}
	return views, nil
}

func (s *CatalogService) GetMenuItem(ctx context.Context, id string) (*MenuItemView, error) {
	menu, err := s.findMenu(ctx, id)
	if err != nil {
		return nil, err
	}
	view := NewMenuItemView(*menu)
	return &view, nil
}

func (s *CatalogService) CreateMenuItem(ctx context.Context, in MenuInput) (*MenuItemView, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		id = utils.NewID()
	} else if !utils.ValidID(id) {
		return nil, validationError("id %q is not a valid identifier", in.ID)
	}

	now := s.now()
	menu := &models.Menu{ID: id, Available: true, CreatedAt: now}
	if err := s.applyMenuInput(ctx, menu, in); err != nil {
		return nil, err
	}
	menu.UpdatedAt = now

	if err := s.store.CreateMenu(ctx, menu); err != nil {
		return nil, storeError(err, fmt.Sprintf("menu item %s", id))
	}
	s.log.WithField("menu_id", menu.ID).Info("Menu item created")
	view := NewMenuItemView(*menu)
	return &view, nil
}

// UpdateMenuItem replaces the item's content; Available is kept when omitted.
func (s *CatalogService) UpdateMenuItem(ctx context.Context, id string, in MenuInput) (*MenuItemView, error) {
	menu, err := s.findMenu(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyMenuInput(ctx, menu, in); err != nil {
		return nil, err
	}
	menu.UpdatedAt = s.now()

	if err := s.store.UpdateMenu(ctx, menu); err != nil {
		return nil, storeError(err, fmt.Sprintf("menu item %s", id))
	}
	view := NewMenuItemView(*menu)
	return &view, nil
}

func (s *CatalogService) applyMenuInput(ctx context.Context, menu *models.Menu, in MenuInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return validationError("menu item name is required")
	}

	cat, err := s.store.FindCategory(ctx, strings.TrimSpace(in.CategoryID))
	if errors.Is(err, database.ErrRecordNotFound) {
		return validationError("category %q does not exist", in.CategoryID)
	}
	if err != nil {
		return storeError(err, "category")
	}

	portions, err := s.portionsFor(in, cat)
	if err != nil {
		return err
	}

	menu.CategoryID = cat.ID
	menu.Name = name
	menu.Description = strings.TrimSpace(in.Description)
	menu.Image = strings.TrimSpace(in.Image)
	menu.Portions = portions
	menu.Price = portions[0].BasePrice
	if in.Available != nil {
		menu.Available = *in.Available
	}
	return nil
}

// portionsFor normalizes the submitted portions against the category's label
// vocabulary. Without portions a single Standard portion at Price is used.
func (s *CatalogService) portionsFor(in MenuInput, cat *models.MenuCategory) (models.PortionList, error) {
	raw := in.Portions
	if len(raw) == 0 {
		if in.Price == nil {
			return nil, validationError("price or portions are required")
		}
		raw = []PortionInput{{Label: models.DefaultPortionLabel, Price: *in.Price}}
	}

	result, err := NormalizePortions(raw, cat.AllowedPortionLabels)
	if len(result.Rejected) > 0 {
		return nil, validationError("portion labels not allowed in category %s: %s (allowed: %s)",
			cat.Name, strings.Join(result.Rejected, ", "), strings.Join(cat.AllowedPortionLabels, ", "))
	}
	if err != nil {
		return nil, err
	}
	return models.PortionList(result.Cleaned), nil
}

func (s *CatalogService) findCategory(ctx context.Context, id string) (*models.MenuCategory, error) {
	if !utils.ValidID(id) {
		return nil, fmt.Errorf("%w: category %q", ErrNotFound, id)
	}
	cat, err := s.store.FindCategory(ctx, id)
	if err != nil {
		return nil, storeError(err, "category")
	}
	return cat, nil
}

func (s *CatalogService) findMenu(ctx context.Context, id string) (*models.Menu, error) {
	if !utils.ValidID(id) {
		return nil, fmt.Errorf("%w: menu item %q", ErrNotFound, id)
	}
	menu, err := s.store.FindMenu(ctx, id)
	if err != nil {
		return nil, storeError(err, "menu item")
	}
	return menu, nil
}

// cleanLabels trims, drops blanks and de-duplicates case-insensitively.
func cleanLabels(labels []string) models.StringList {
	out := models.StringList{}
	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		l = strings.TrimSpace(l)
		key := strings.ToLower(l)
		if l == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, l)
	}
	return out
}
