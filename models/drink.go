package models

// MaxTitleLength bounds Drink.Title.
const MaxTitleLength = 80

// Drink is a menu item and its recipe
type Drink struct {
	ID     int64        `json:"id" db:"id"`
	Title  string       `json:"title" db:"title" validate:"required,max=80"`
	Recipe []Ingredient `json:"recipe" db:"recipe" validate:"required,min=1,dive"`
}

// Ingredient is one layer of a drink's recipe
type Ingredient struct {
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"required"`
	Parts int    `json:"parts" validate:"gte=1"`
}

// TableName returns the table name for the Drink model
func (Drink) TableName() string {
	return "drinks"
}

// ShortIngredient is the public view of an ingredient: no names.
type ShortIngredient struct {
	Color string `json:"color"`
	Parts int    `json:"parts"`
}

// ShortDrink is the public representation served without authentication
type ShortDrink struct {
	ID     int64             `json:"id"`
	Title  string            `json:"title"`
	Recipe []ShortIngredient `json:"recipe"`
}

// Short returns the public representation of the drink.
func (d *Drink) Short() ShortDrink {
	recipe := make([]ShortIngredient, 0, len(d.Recipe))
	for _, ing := range d.Recipe {
		recipe = append(recipe, ShortIngredient{Color: ing.Color, Parts: ing.Parts})
	}
	return ShortDrink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// Long returns the full representation including ingredient names.
func (d *Drink) Long() Drink {
	recipe := make([]Ingredient, len(d.Recipe))
	copy(recipe, d.Recipe)
	return Drink{ID: d.ID, Title: d.Title, Recipe: recipe}
}

// NewDrink creates a new, unsaved Drink
func NewDrink(title string, recipe []Ingredient) *Drink {
	return &Drink{
		Title:  title,
		Recipe: recipe,
	}
}

// DrinkPatch carries the fields of a partial update. Nil fields are left
// unchanged.
type DrinkPatch struct {
	Title  *string       `json:"title,omitempty" validate:"omitnil,min=1,max=80"`
	Recipe *[]Ingredient `json:"recipe,omitempty" validate:"omitnil,min=1,dive"`
}

// Apply copies the set fields of p onto d.
func (p DrinkPatch) Apply(d *Drink) {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.Recipe != nil {
		d.Recipe = *p.Recipe
	}
}

// IsEmpty reports whether the patch changes nothing.
func (p DrinkPatch) IsEmpty() bool {
	return p.Title == nil && p.Recipe == nil
}
