package ollama

func buildAnalysisPrompt(query string) string {
	const maxSnippet = 2000
	snippet := query
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	return `You are a recipe query analyzer.
Return strict JSON object with keys:
intent (one of "query_dish", "recommend", "how_to_cook", "ingredient_search"),
optimized_text (string rewritten for search),
entities (object with string arrays: dishes, ingredients, scenes, flavors, tags),
keywords (array of strings).
No markdown, no extra keys.

Rules:
- "how_to_cook" only when the user asks how to prepare a specific dish.
- Occasion or situation phrases go into the scenes entity list, not the intent.
- Entity values must be copied from the query, never invented.

Query:
` + snippet
}
