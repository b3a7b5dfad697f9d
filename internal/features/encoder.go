package features

// LabelEncoder assigns a stable integer code to each distinct category in the
// order categories are first observed. The mapping is retained so the same
// codes apply to both training and pending partitions.
type LabelEncoder struct {
	codes   map[string]int
	classes []string
}

func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{codes: make(map[string]int)}
}

// Fit observes values and assigns codes to categories not yet seen.
func (e *LabelEncoder) Fit(values []string) {
	for _, v := range values {
		if _, ok := e.codes[v]; !ok {
			e.codes[v] = len(e.classes)
			e.classes = append(e.classes, v)
		}
	}
}

// Code returns the integer code for a category, or -1 if it was never fit.
func (e *LabelEncoder) Code(v string) int {
	if c, ok := e.codes[v]; ok {
		return c
	}
	return -1
}

// Classes returns the fitted categories in code order.
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
