package pipe

// MergeFunc computes the new canonical value from the current one and an update.
// It must not mutate its arguments. A nil update asks for recomputation only.
type MergeFunc func(current, update any) any

// ShallowMerge overlays the top-level fields of update onto current.
// Non-object operands are replaced by update.
func ShallowMerge(current, update any) any {
	if update == nil {
		return current
	}
	cur, ok1 := current.(map[string]any)
	upd, ok2 := update.(map[string]any)
	if !ok1 || !ok2 {
		return update
	}
	out := make(map[string]any, len(cur)+len(upd))
	for k, v := range cur {
		out[k] = v
	}
	for k, v := range upd {
		out[k] = v
	}
	return out
}

// DeepMerge overlays update onto current recursively through nested objects.
func DeepMerge(current, update any) any {
	if update == nil {
		return current
	}
	cur, ok1 := current.(map[string]any)
	upd, ok2 := update.(map[string]any)
	if !ok1 || !ok2 {
		return update
	}
	out := make(map[string]any, len(cur)+len(upd))
	for k, v := range cur {
		out[k] = v
	}
	for k, v := range upd {
		out[k] = DeepMerge(out[k], v)
	}
	return out
}

// Replace discards current in favour of update. A nil update keeps current.
func Replace(current, update any) any {
	if update == nil {
		return current
	}
	return update
}
