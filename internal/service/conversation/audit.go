package conversation

// Audit collects per-request fields. Keys of skipped steps stay absent.
type Audit map[string]any

func (a Audit) Set(key string, value any) {
	a[key] = value
}

func (a Audit) Merge(fields map[string]any) {
	for k, v := range fields {
		a[k] = v
	}
}

func (a Audit) Has(key string) bool {
	_, ok := a[key]
	return ok
}
