package assistant

// canned example exchanges, keyed by language tag. Used by development
// tooling and tests that need a realistic Result without an API call.
var exampleResponses = map[string]Result{
	"python": {
		Success: true,
		Response: "In Python, you can sort a list using the sort() method " +
			"(in place) or the sorted() function (returns a new list):\n\n" +
			"```python\nmy_list = [3, 1, 4, 1, 5, 9]\nmy_list.sort()\n" +
			"sorted_list = sorted(my_list)\n```",
		Model: defaultModel,
	},
}

// ExampleResult returns a canned successful Result for the given language,
// or a failure Result when no example exists for it.
func ExampleResult(language string) *Result {
	if r, ok := exampleResponses[language]; ok {
		out := r
		return &out
	}
	return &Result{Success: false, Error: "no example available for this language"}
}
