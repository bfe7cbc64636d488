package domain

// RecipePart is an ingredient or condiment together with its amount.
// Amount lives on the graph edge, so repeated reads may surface parts
// in any order; callers must treat the slice as a set.
type RecipePart struct {
	Name   string `json:"name"`
	Amount string `json:"amount,omitempty"`
}

// RecipeDetail is the hydrated view of one recipe, assembled from the
// graph neighborhood around the recipe node. The recipe name is the
// sole join key across graph, vector and history data.
type RecipeDetail struct {
	Name        string       `json:"name"`
	Category    string       `json:"category,omitempty"`
	Difficulty  int          `json:"difficulty,omitempty"`
	Description string       `json:"description,omitempty"`
	Ingredients []RecipePart `json:"ingredients"`
	Condiments  []RecipePart `json:"condiments"`
	Tools       []string     `json:"tools,omitempty"`
	Tags        []string     `json:"tags,omitempty"`
	Flavors     []string     `json:"flavors,omitempty"`
	Steps       []string     `json:"steps,omitempty"`
	Tips        string       `json:"tips,omitempty"`
	Similar     []string     `json:"similar,omitempty"`
	Neighbors   []GraphNode  `json:"neighbors,omitempty"`
}

// Empty reports whether the detail carries neither steps nor
// ingredients, i.e. the recipe was not found or is an unusable stub.
func (d RecipeDetail) Empty() bool {
	return len(d.Steps) == 0 && len(d.Ingredients) == 0
}

// NodeKind is the closed set of graph entity labels. All label-based
// branching happens through this enum at the data-mapping boundary.
type NodeKind string

const (
	KindRecipe     NodeKind = "recipe"
	KindIngredient NodeKind = "ingredient"
	KindCondiment  NodeKind = "condiment"
	KindTag        NodeKind = "tag"
	KindFlavor     NodeKind = "flavor"
	KindTool       NodeKind = "tool"
	KindUser       NodeKind = "user"
	KindUnknown    NodeKind = "unknown"
)

// GraphNode is a typed neighbor reached by multi-hop traversal.
type GraphNode struct {
	Kind NodeKind `json:"kind"`
	Name string   `json:"name"`
}

// GraphHit is one recipe row returned by an entity-centric graph
// lookup (by ingredient, tag or flavor).
type GraphHit struct {
	Name       string   `json:"name"`
	Difficulty int      `json:"difficulty,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Flavors    []string `json:"flavors,omitempty"`
	TagMatches int      `json:"tag_matches,omitempty"`
}

// SimilarHit is one recipe from the merged similarity lookup: explicit
// similar_to links, shared ingredients and shared flavors, each capped
// and additively combined with a unioned feature list.
type SimilarHit struct {
	Name     string   `json:"name"`
	Score    int      `json:"score"`
	Features []string `json:"features,omitempty"`
}
