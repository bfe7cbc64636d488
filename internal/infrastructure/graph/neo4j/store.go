package neo4j

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/zxcasde/RecipeGraphRAG/internal/core/domain"
)

// Store implements the graph port over the Bolt protocol. All queries
// are parameterized; the only string interpolation is the variable
// path depth and the relationship type, both drawn from closed sets.
type Store struct {
	driver neo4j.DriverWithContext
	logger *slog.Logger
}

func NewStore(driver neo4j.DriverWithContext, logger *slog.Logger) *Store {
	return &Store{driver: driver, logger: logger}
}

// Connect dials the server and verifies connectivity.
func Connect(ctx context.Context, uri, username, password string) (neo4j.DriverWithContext, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}
	return driver, nil
}

func (s *Store) readSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
}

func (s *Store) writeSession(ctx context.Context) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
}

// RecipeDetail assembles the hydrated view of one recipe. Unknown
// names return an empty detail, not an error.
func (s *Store) RecipeDetail(ctx context.Context, name string, depth int) (domain.RecipeDetail, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (r:Recipe {name: $name})
		OPTIONAL MATCH (r)-[ni:NEEDS_INGREDIENT]->(i:Ingredient)
		WITH r, collect(DISTINCT {name: i.name, amount: ni.amount}) AS ingredients
		OPTIONAL MATCH (r)-[nc:NEEDS_CONDIMENT]->(c:Condiment)
		WITH r, ingredients, collect(DISTINCT {name: c.name, amount: nc.amount}) AS condiments
		OPTIONAL MATCH (r)-[:NEEDS_TOOL]->(tool:Tool)
		WITH r, ingredients, condiments, collect(DISTINCT tool.name) AS tools
		OPTIONAL MATCH (r)-[:HAS_TAG]->(t:Tag)
		WITH r, ingredients, condiments, tools, collect(DISTINCT t.name) AS tags
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		WITH r, ingredients, condiments, tools, tags, collect(DISTINCT f.name) AS flavors
		OPTIONAL MATCH (r)-[:SIMILAR_TO]-(sim:Recipe)
		RETURN r.name AS name, r.category AS category, r.difficulty AS difficulty,
		       r.description AS description, r.steps AS steps, r.tips AS tips,
		       ingredients, condiments, tools, tags, flavors,
		       collect(DISTINCT sim.name) AS similar
	`
	result, err := session.Run(ctx, query, map[string]any{"name": name})
	if err != nil {
		return domain.RecipeDetail{}, fmt.Errorf("recipe detail query: %w", err)
	}
	if !result.Next(ctx) {
		return domain.RecipeDetail{}, nil
	}

	record := result.Record()
	detail := domain.RecipeDetail{
		Name:        recordString(record, "name"),
		Category:    recordString(record, "category"),
		Difficulty:  recordInt(record, "difficulty"),
		Description: recordString(record, "description"),
		Ingredients: recordParts(record, "ingredients"),
		Condiments:  recordParts(record, "condiments"),
		Tools:       recordStringSlice(record, "tools"),
		Tags:        recordStringSlice(record, "tags"),
		Flavors:     recordStringSlice(record, "flavors"),
		Steps:       recordStringSlice(record, "steps"),
		Tips:        recordString(record, "tips"),
		Similar:     recordStringSlice(record, "similar"),
	}

	if depth > 1 {
		neighbors, err := s.multiHopNeighbors(ctx, session, name, depth)
		if err != nil {
			s.logger.Warn("multi-hop neighbor query failed", "recipe", name, "error", err)
		} else {
			detail.Neighbors = neighbors
		}
	}
	return detail, nil
}

// multiHopNeighbors walks the neighborhood up to depth hops. Depth is
// clamped to [1, 3]; tag and flavor hubs make deeper walks explode.
func (s *Store) multiHopNeighbors(ctx context.Context, session neo4j.SessionWithContext, name string, depth int) ([]domain.GraphNode, error) {
	if depth < 1 {
		depth = 1
	}
	if depth > 3 {
		depth = 3
	}

	query := fmt.Sprintf(`
		MATCH (r:Recipe {name: $name})-[*1..%d]-(n)
		WHERE n.name IS NOT NULL AND n.name <> $name
		RETURN DISTINCT labels(n) AS labels, n.name AS name
		LIMIT 100
	`, depth)

	result, err := session.Run(ctx, query, map[string]any{"name": name})
	if err != nil {
		return nil, fmt.Errorf("neighbor query: %w", err)
	}

	var out []domain.GraphNode
	for result.Next(ctx) {
		record := result.Record()
		nodeName := recordString(record, "name")
		if nodeName == "" {
			continue
		}
		out = append(out, domain.GraphNode{
			Kind: kindFromLabels(recordStringSlice(record, "labels")),
			Name: nodeName,
		})
	}
	return out, nil
}

func (s *Store) ByIngredient(ctx context.Context, name string, limit int) ([]domain.GraphHit, error) {
	query := `
		MATCH (r:Recipe)-[:NEEDS_INGREDIENT]->(i:Ingredient)
		WHERE toLower(i.name) CONTAINS toLower($name)
		OPTIONAL MATCH (r)-[:HAS_TAG]->(t:Tag)
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		RETURN r.name AS name, r.difficulty AS difficulty,
		       collect(DISTINCT t.name) AS tags, collect(DISTINCT f.name) AS flavors
		ORDER BY r.difficulty ASC
		LIMIT $limit
	`
	return s.runHitQuery(ctx, "ingredient lookup", query, map[string]any{"name": name, "limit": clampLimit(limit)})
}

func (s *Store) ByTag(ctx context.Context, name string, limit int) ([]domain.GraphHit, error) {
	query := `
		MATCH (r:Recipe)-[:HAS_TAG]->(tag:Tag)
		WHERE toLower(tag.name) CONTAINS toLower($name)
		OPTIONAL MATCH (r)-[:HAS_TAG]->(t:Tag)
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		RETURN r.name AS name, r.difficulty AS difficulty,
		       collect(DISTINCT t.name) AS tags, collect(DISTINCT f.name) AS flavors
		ORDER BY r.difficulty ASC
		LIMIT $limit
	`
	return s.runHitQuery(ctx, "tag lookup", query, map[string]any{"name": name, "limit": clampLimit(limit)})
}

func (s *Store) ByFlavor(ctx context.Context, name string, limit int) ([]domain.GraphHit, error) {
	query := `
		MATCH (r:Recipe)-[:HAS_FLAVOR]->(flavor:Flavor)
		WHERE toLower(flavor.name) CONTAINS toLower($name)
		OPTIONAL MATCH (r)-[:HAS_TAG]->(t:Tag)
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		RETURN r.name AS name, r.difficulty AS difficulty,
		       collect(DISTINCT t.name) AS tags, collect(DISTINCT f.name) AS flavors
		ORDER BY r.difficulty ASC
		LIMIT $limit
	`
	return s.runHitQuery(ctx, "flavor lookup", query, map[string]any{"name": name, "limit": clampLimit(limit)})
}

// ByTags ranks recipes by how many of the given tags they carry.
func (s *Store) ByTags(ctx context.Context, tags []string, limit int) ([]domain.GraphHit, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (r:Recipe)-[:HAS_TAG]->(t:Tag)
		WHERE t.name IN $tags
		WITH r, count(DISTINCT t) AS matches
		OPTIONAL MATCH (r)-[:HAS_TAG]->(allTag:Tag)
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		RETURN r.name AS name, r.difficulty AS difficulty, matches,
		       collect(DISTINCT allTag.name) AS tags, collect(DISTINCT f.name) AS flavors
		ORDER BY matches DESC, r.difficulty ASC
		LIMIT $limit
	`
	result, err := session.Run(ctx, query, map[string]any{"tags": tags, "limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("tag set lookup query: %w", err)
	}

	var out []domain.GraphHit
	for result.Next(ctx) {
		record := result.Record()
		out = append(out, domain.GraphHit{
			Name:       recordString(record, "name"),
			Difficulty: recordInt(record, "difficulty"),
			Tags:       recordStringSlice(record, "tags"),
			Flavors:    recordStringSlice(record, "flavors"),
			TagMatches: recordInt(record, "matches"),
		})
	}
	return out, result.Err()
}

// SimilarRecipes merges explicit similarity links, shared-ingredient
// counts and shared-flavor counts into one additive score per
// neighbor, with the contributing features unioned.
func (s *Store) SimilarRecipes(ctx context.Context, name string, limit int) ([]domain.SimilarHit, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (r:Recipe {name: $name})
		CALL {
			WITH r
			MATCH (r)-[:SIMILAR_TO]-(o:Recipe) RETURN o
			UNION
			WITH r
			MATCH (r)-[:NEEDS_INGREDIENT]->(:Ingredient)<-[:NEEDS_INGREDIENT]-(o:Recipe) RETURN o
			UNION
			WITH r
			MATCH (r)-[:HAS_FLAVOR]->(:Flavor)<-[:HAS_FLAVOR]-(o:Recipe) RETURN o
		}
		WITH r, o
		WHERE o.name <> $name
		OPTIONAL MATCH (r)-[:NEEDS_INGREDIENT]->(i:Ingredient)<-[:NEEDS_INGREDIENT]-(o)
		WITH r, o, collect(DISTINCT i.name)[..5] AS sharedIngredients
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)<-[:HAS_FLAVOR]-(o)
		WITH r, o, sharedIngredients, collect(DISTINCT f.name)[..5] AS sharedFlavors
		WITH o.name AS name,
		     (CASE WHEN (r)-[:SIMILAR_TO]-(o) THEN 3 ELSE 0 END)
		       + size(sharedIngredients) + size(sharedFlavors) AS score,
		     sharedIngredients + sharedFlavors AS features
		WHERE score > 0
		RETURN name, score, features
		ORDER BY score DESC, name ASC
		LIMIT $limit
	`
	result, err := session.Run(ctx, query, map[string]any{"name": name, "limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("similar recipes query: %w", err)
	}

	var out []domain.SimilarHit
	for result.Next(ctx) {
		record := result.Record()
		out = append(out, domain.SimilarHit{
			Name:     recordString(record, "name"),
			Score:    recordInt(record, "score"),
			Features: recordStringSlice(record, "features"),
		})
	}
	return out, result.Err()
}

func (s *Store) UserHistory(ctx context.Context, userID string) ([]domain.Interaction, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})-[rel:SEARCHED|COOKED|LIKED]->(r:Recipe)
		RETURN type(rel) AS action, r.name AS recipe,
		       coalesce(rel.count, 1) AS count, coalesce(rel.rating, 0) AS rating,
		       rel.at AS at
		ORDER BY rel.at DESC
		LIMIT 100
	`
	result, err := session.Run(ctx, query, map[string]any{"userID": userID})
	if err != nil {
		return nil, fmt.Errorf("user history query: %w", err)
	}

	var out []domain.Interaction
	for result.Next(ctx) {
		record := result.Record()
		interaction := domain.Interaction{
			Action: actionFromRelType(recordString(record, "action")),
			Recipe: recordString(record, "recipe"),
			Count:  recordInt(record, "count"),
			Rating: recordInt(record, "rating"),
		}
		if at, ok := record.Get("at"); ok {
			if ts, ok := at.(time.Time); ok {
				interaction.At = ts
			}
		}
		out = append(out, interaction)
	}
	return out, result.Err()
}

// InferredPreferences derives flavor and tag interest from the user's
// liked and cooked recipes.
func (s *Store) InferredPreferences(ctx context.Context, userID string) (domain.PreferenceDocument, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})-[:COOKED|LIKED]->(r:Recipe)
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		WITH u, collect(DISTINCT f.name) AS flavors
		MATCH (u)-[:COOKED|LIKED]->(r2:Recipe)
		OPTIONAL MATCH (r2)-[:HAS_TAG]->(t:Tag)
		RETURN flavors, collect(DISTINCT t.name) AS tags
	`
	result, err := session.Run(ctx, query, map[string]any{"userID": userID})
	if err != nil {
		return domain.PreferenceDocument{}, fmt.Errorf("inferred preferences query: %w", err)
	}
	if !result.Next(ctx) {
		return domain.PreferenceDocument{}, nil
	}
	record := result.Record()
	return domain.PreferenceDocument{
		Flavors: recordStringSlice(record, "flavors"),
		Tags:    recordStringSlice(record, "tags"),
	}, nil
}

// Vocabulary snapshots every entity name for the preference extractor.
func (s *Store) Vocabulary(ctx context.Context) (domain.Vocabulary, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		CALL {
			MATCH (r:Recipe) RETURN collect(r.name) AS names, 'dishes' AS kind
			UNION ALL
			MATCH (i:Ingredient) RETURN collect(i.name) AS names, 'ingredients' AS kind
			UNION ALL
			MATCH (f:Flavor) RETURN collect(f.name) AS names, 'flavors' AS kind
			UNION ALL
			MATCH (t:Tag) RETURN collect(t.name) AS names, 'tags' AS kind
		}
		RETURN kind, names
	`
	result, err := session.Run(ctx, query, nil)
	if err != nil {
		return domain.Vocabulary{}, fmt.Errorf("vocabulary query: %w", err)
	}

	var vocab domain.Vocabulary
	for result.Next(ctx) {
		record := result.Record()
		names := recordStringSlice(record, "names")
		switch recordString(record, "kind") {
		case "dishes":
			vocab.Dishes = names
		case "ingredients":
			vocab.Ingredients = names
		case "flavors":
			vocab.Flavors = names
		case "tags":
			vocab.Tags = names
		}
	}
	return vocab, result.Err()
}

// UnexploredRecipes scores recipes the user has never cooked against
// the flavor and tag profile of their history.
func (s *Store) UnexploredRecipes(ctx context.Context, userID string, limit int) ([]domain.UnexploredRecommendation, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})-[:COOKED|LIKED]->(seen:Recipe)
		OPTIONAL MATCH (seen)-[:HAS_FLAVOR]->(pf:Flavor)
		OPTIONAL MATCH (seen)-[:HAS_TAG]->(pt:Tag)
		WITH u, collect(DISTINCT pf.name) AS likedFlavors, collect(DISTINCT pt.name) AS likedTags,
		     collect(DISTINCT seen.name) AS seenNames
		MATCH (r:Recipe)
		WHERE NOT r.name IN seenNames AND NOT (u)-[:COOKED]->(r)
		OPTIONAL MATCH (r)-[:HAS_FLAVOR]->(f:Flavor)
		WITH r, likedFlavors, likedTags, collect(DISTINCT f.name) AS flavors
		OPTIONAL MATCH (r)-[:HAS_TAG]->(t:Tag)
		WITH r, likedFlavors, likedTags, flavors, collect(DISTINCT t.name) AS tags
		WITH r.name AS name, r.difficulty AS difficulty, flavors, tags,
		     size([fl IN flavors WHERE fl IN likedFlavors]) AS flavorMatches,
		     size([tg IN tags WHERE tg IN likedTags]) AS tagMatches
		WHERE flavorMatches > 0 OR tagMatches > 0
		RETURN name, difficulty, flavors, tags, flavorMatches, tagMatches
		ORDER BY (2 * flavorMatches + tagMatches) DESC, difficulty ASC
		LIMIT $limit
	`
	result, err := session.Run(ctx, query, map[string]any{"userID": userID, "limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("unexplored recipes query: %w", err)
	}

	var out []domain.UnexploredRecommendation
	for result.Next(ctx) {
		record := result.Record()
		out = append(out, domain.UnexploredRecommendation{
			Name:          recordString(record, "name"),
			Difficulty:    recordInt(record, "difficulty"),
			Flavors:       recordStringSlice(record, "flavors"),
			Tags:          recordStringSlice(record, "tags"),
			FlavorMatches: recordInt(record, "flavorMatches"),
			TagMatches:    recordInt(record, "tagMatches"),
		})
	}
	return out, result.Err()
}

// SimilarToHistory pairs the user's most recent liked and cooked
// recipes (up to five seeds) with un-cooked recipes sharing flavors,
// ingredients or tags.
func (s *Store) SimilarToHistory(ctx context.Context, userID string, limit int) ([]domain.SimilarRecommendation, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	query := `
		MATCH (u:User {id: $userID})-[rel:COOKED|LIKED]->(seed:Recipe)
		WITH u, seed, type(rel) AS action, rel.at AS at
		ORDER BY at DESC
		LIMIT 5
		MATCH (candidate:Recipe)
		WHERE candidate.name <> seed.name AND NOT (u)-[:COOKED]->(candidate)
		OPTIONAL MATCH (seed)-[:HAS_FLAVOR]->(f:Flavor)<-[:HAS_FLAVOR]-(candidate)
		WITH u, seed, action, candidate, collect(DISTINCT f.name)[..3] AS commonFlavors
		OPTIONAL MATCH (seed)-[:NEEDS_INGREDIENT]->(i:Ingredient)<-[:NEEDS_INGREDIENT]-(candidate)
		WITH seed, action, candidate, commonFlavors, collect(DISTINCT i.name)[..3] AS commonIngredients
		OPTIONAL MATCH (seed)-[:HAS_TAG]->(t:Tag)<-[:HAS_TAG]-(candidate)
		WITH seed.name AS source, action, candidate.name AS name, candidate.difficulty AS difficulty,
		     commonFlavors, commonIngredients, collect(DISTINCT t.name)[..3] AS commonTags
		WHERE size(commonFlavors) > 0 OR size(commonIngredients) > 0 OR size(commonTags) > 0
		RETURN source, action, name, difficulty, commonFlavors, commonIngredients, commonTags
		ORDER BY (3 * size(commonFlavors) + 2 * size(commonIngredients) + size(commonTags)) DESC
		LIMIT $limit
	`
	result, err := session.Run(ctx, query, map[string]any{"userID": userID, "limit": clampLimit(limit)})
	if err != nil {
		return nil, fmt.Errorf("similar to history query: %w", err)
	}

	var out []domain.SimilarRecommendation
	for result.Next(ctx) {
		record := result.Record()
		out = append(out, domain.SimilarRecommendation{
			Source:            recordString(record, "source"),
			Name:              recordString(record, "name"),
			Action:            string(actionFromRelType(recordString(record, "action"))),
			Difficulty:        recordInt(record, "difficulty"),
			CommonFlavors:     recordStringSlice(record, "commonFlavors"),
			CommonIngredients: recordStringSlice(record, "commonIngredients"),
			CommonTags:        recordStringSlice(record, "commonTags"),
		})
	}
	return out, result.Err()
}

// RecordInteraction upserts the typed edge for one event. Repeat
// actions increment the edge count; a cooked rating overwrites the
// previous one.
func (s *Store) RecordInteraction(ctx context.Context, event domain.InteractionEvent) error {
	relType, ok := relTypeForAction(event.Action)
	if !ok {
		return fmt.Errorf("unknown interaction action %q", event.Action)
	}

	session := s.writeSession(ctx)
	defer session.Close(ctx)

	query := fmt.Sprintf(`
		MERGE (u:User {id: $userID})
		WITH u
		MATCH (r:Recipe {name: $recipe})
		MERGE (u)-[rel:%s]->(r)
		ON CREATE SET rel.count = 1, rel.at = datetime($at)
		ON MATCH SET rel.count = rel.count + 1, rel.at = datetime($at)
		FOREACH (ignored IN CASE WHEN $rating > 0 THEN [1] ELSE [] END |
			SET rel.rating = $rating
		)
		RETURN r.name AS name
	`, relType)

	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	result, err := session.Run(ctx, query, map[string]any{
		"userID": event.UserID,
		"recipe": event.Recipe,
		"rating": event.Rating,
		"at":     at.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	if !result.Next(ctx) {
		// Recipe node absent. The edge cannot be created; surface it so
		// the worker can log and drop the event.
		return domain.WrapError(domain.ErrNotFound, "record interaction", fmt.Errorf("recipe %q", event.Recipe))
	}
	return nil
}

func (s *Store) runHitQuery(ctx context.Context, operation, query string, params map[string]any) ([]domain.GraphHit, error) {
	session := s.readSession(ctx)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("%s query: %w", operation, err)
	}

	var out []domain.GraphHit
	for result.Next(ctx) {
		record := result.Record()
		out = append(out, domain.GraphHit{
			Name:       recordString(record, "name"),
			Difficulty: recordInt(record, "difficulty"),
			Tags:       recordStringSlice(record, "tags"),
			Flavors:    recordStringSlice(record, "flavors"),
		})
	}
	return out, result.Err()
}

func relTypeForAction(action domain.InteractionAction) (string, bool) {
	switch action {
	case domain.ActionSearched:
		return "SEARCHED", true
	case domain.ActionCooked:
		return "COOKED", true
	case domain.ActionLiked:
		return "LIKED", true
	}
	return "", false
}

func actionFromRelType(relType string) domain.InteractionAction {
	switch relType {
	case "SEARCHED":
		return domain.ActionSearched
	case "COOKED":
		return domain.ActionCooked
	case "LIKED":
		return domain.ActionLiked
	}
	return domain.InteractionAction(relType)
}

func clampLimit(limit int) int {
	if limit < 1 {
		return 10
	}
	if limit > 100 {
		return 100
	}
	return limit
}
