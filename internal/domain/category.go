package domain

// Category es una de las 12 areas de vida fijas a las que pertenece una meta.
type Category struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

const (
	MinCategoryID = 1
	MaxCategoryID = 12
)

var categories = [...]Category{
	{ID: 1, Name: "Health & Fitness", Icon: "◎", Color: "#E8A87C"},
	{ID: 2, Name: "Intellectual Life", Icon: "◈", Color: "#7CB9E8"},
	{ID: 3, Name: "Emotional Life", Icon: "◉", Color: "#C9A7E8"},
	{ID: 4, Name: "Character", Icon: "◆", Color: "#E8D07C"},
	{ID: 5, Name: "Spiritual Life", Icon: "✦", Color: "#7CE8C3"},
	{ID: 6, Name: "Love Relationship", Icon: "◯", Color: "#E87CA0"},
	{ID: 7, Name: "Parenting", Icon: "◑", Color: "#A0E87C"},
	{ID: 8, Name: "Social Life", Icon: "◐", Color: "#E8B87C"},
	{ID: 9, Name: "Financial Life", Icon: "◇", Color: "#7CE8A0"},
	{ID: 10, Name: "Career", Icon: "▲", Color: "#E87C7C"},
	{ID: 11, Name: "Quality of Life", Icon: "◬", Color: "#7CC3E8"},
	{ID: 12, Name: "Life Vision", Icon: "★", Color: "#FFD700"},
}

// unknownCategory se usa cuando un id no existe; la UI nunca debe romperse por eso.
var unknownCategory = Category{Name: "Unknown", Icon: "•", Color: "#FFD700"}

// Categories devuelve una copia del registro ordenada por id.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories[:])
	return out
}

// LookupCategory resuelve un id; ok=false si no existe.
func LookupCategory(id int) (Category, bool) {
	if !IsValidCategory(id) {
		return Category{}, false
	}
	return categories[id-1], true
}

// CategoryOrDefault devuelve la categoria o una neutra con el mismo id.
func CategoryOrDefault(id int) Category {
	if c, ok := LookupCategory(id); ok {
		return c
	}
	c := unknownCategory
	c.ID = id
	return c
}

func IsValidCategory(id int) bool {
	return id >= MinCategoryID && id <= MaxCategoryID
}
