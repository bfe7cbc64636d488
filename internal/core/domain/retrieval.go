package domain

// Intent classifies what the user is asking for.
type Intent string

const (
	IntentQueryDish        Intent = "query_dish"
	IntentRecommend        Intent = "recommend"
	IntentHowToCook        Intent = "how_to_cook"
	IntentIngredientSearch Intent = "ingredient_search"
)

// Entities are the typed mentions extracted from the query text.
type Entities struct {
	Dishes      []string `json:"dishes,omitempty"`
	Ingredients []string `json:"ingredients,omitempty"`
	Scenes      []string `json:"scenes,omitempty"`
	Flavors     []string `json:"flavors,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// QueryContext is the analyzed form of one raw query. Produced by the
// external analyzer or, when that fails, by the deterministic fallback
// classifier.
type QueryContext struct {
	RawText       string   `json:"raw_text"`
	OptimizedText string   `json:"optimized_text"`
	Intent        Intent   `json:"intent"`
	Entities      Entities `json:"entities"`
	Keywords      []string `json:"keywords,omitempty"`
	Fallback      bool     `json:"fallback,omitempty"`
}

// SourceKind names the retrieval source that emitted a candidate.
type SourceKind string

const (
	SourceVector     SourceKind = "vector"
	SourceIngredient SourceKind = "ingredient"
	SourceFlavor     SourceKind = "flavor"
	SourceScene      SourceKind = "scene"
	SourceDish       SourceKind = "dish"
	SourceProfile    SourceKind = "profile"
)

// Candidate is one pre-fusion hit from exactly one source.
type Candidate struct {
	Name   string     `json:"name"`
	Score  float64    `json:"score"`
	Source SourceKind `json:"source"`
	Reason string     `json:"reason"`
}

// FusedResult is one entry of the final ranked list. Score is the sum
// of every source's weighted, per-source-max-normalized contribution;
// Reason concatenates all contributing reason strings in order.
type FusedResult struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
	Rank   int     `json:"rank"`
}

// FusionWeights records which weight-policy branch fired for one call.
// Vector + Graph always sum to 1.0.
type FusionWeights struct {
	Vector float64 `json:"vector"`
	Graph  float64 `json:"graph"`
	Branch string  `json:"branch"`
}

// VectorSpace selects one of the two embedding spaces per recipe.
type VectorSpace string

const (
	// SpaceIdentity embeds the recipe name only; used for near-name
	// recovery of fuzzy dish references.
	SpaceIdentity VectorSpace = "identity"
	// SpaceProfile embeds the full attribute text and is the default
	// recall space.
	SpaceProfile VectorSpace = "profile"
)

// VectorHit is one nearest-neighbor result. Score is the cosine
// similarity, a plain dot product over L2-normalized embeddings.
type VectorHit struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// SceneRecommendation is a scene-search hit with the tags it matched.
type SceneRecommendation struct {
	Name        string   `json:"name"`
	Difficulty  int      `json:"difficulty,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Flavors     []string `json:"flavors,omitempty"`
	TagMatches  int      `json:"tag_matches"`
	MatchedTags []string `json:"matched_tags"`
	Reason      string   `json:"reason"`
}

// UnexploredRecommendation is a recipe the user has not cooked, scored
// 2 per matching flavor plus 1 per matching tag.
type UnexploredRecommendation struct {
	Name          string   `json:"name"`
	Difficulty    int      `json:"difficulty,omitempty"`
	Flavors       []string `json:"flavors,omitempty"`
	Tags          []string `json:"tags,omitempty"`
	FlavorMatches int      `json:"flavor_matches"`
	TagMatches    int      `json:"tag_matches"`
	Score         int      `json:"score"`
	Reason        string   `json:"reason"`
}

// SimilarRecommendation pairs one history seed with one un-cooked
// recipe, scored 3 per shared flavor, 2 per shared ingredient and 1
// per shared tag, with a synthesized explanation.
type SimilarRecommendation struct {
	Source            string   `json:"source"`
	Name              string   `json:"name"`
	Action            string   `json:"action"`
	CommonFlavors     []string `json:"common_flavors,omitempty"`
	CommonIngredients []string `json:"common_ingredients,omitempty"`
	CommonTags        []string `json:"common_tags,omitempty"`
	Difficulty        int      `json:"difficulty,omitempty"`
	Score             int      `json:"score"`
	Explanation       string   `json:"explanation"`
	ShortReason       string   `json:"short_reason"`
}

// CookingGuidance is the output of the cooking-progress state machine.
// Progress is 1-based "current/total"; no cursor is persisted, every
// call re-derives state from the caller's progress description.
type CookingGuidance struct {
	Recipe      string `json:"recipe"`
	CurrentStep int    `json:"current_step,omitempty"`
	TotalSteps  int    `json:"total_steps"`
	Progress    string `json:"progress"`
	NextStep    string `json:"next_step,omitempty"`
	Tips        string `json:"tips,omitempty"`
	Completed   bool   `json:"completed"`
	Message     string `json:"message,omitempty"`
}

// ResultBundle is everything one retrieve call produced. The fused
// ranking and the recommendation lists are deliberately separate and
// never merged.
type ResultBundle struct {
	Query            QueryContext               `json:"query"`
	VectorCandidates []Candidate                `json:"vector_candidates,omitempty"`
	GraphCandidates  []Candidate                `json:"graph_candidates,omitempty"`
	Fusion           FusionWeights              `json:"fusion"`
	Results          []FusedResult              `json:"results"`
	Details          map[string]RecipeDetail    `json:"details,omitempty"`
	User             *UserData                  `json:"user,omitempty"`
	SceneMatches     []SceneRecommendation      `json:"scene_recommendations,omitempty"`
	Guidance         *CookingGuidance           `json:"cooking_guidance,omitempty"`
	Unexplored       []UnexploredRecommendation `json:"unexplored_recommendations,omitempty"`
	Similar          []SimilarRecommendation    `json:"similar_recommendations,omitempty"`
}
