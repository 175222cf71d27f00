package base

import "fmt"

// Lifecycle is the default construction and production scheduler.
type Lifecycle struct{}

// Advance runs every base forward by elapsed seconds. bases is not modified;
// the returned slice holds the updated copies and msgs describes what finished.
func (Lifecycle) Advance(bases []Base, elapsed float64) ([]Base, []string, error) {
	if elapsed < 0 {
		return nil, nil, fmt.Errorf("negative elapsed time %f", elapsed)
	}
	out := make([]Base, len(bases))
	var msgs []string
	for i, b := range bases {
		c := b.Clone()
		built, finished := c.Advance(elapsed)
		if built {
			msgs = append(msgs, fmt.Sprintf("%s construction complete", c.Name))
		}
		for _, job := range finished {
			msgs = append(msgs, fmt.Sprintf("%s finished %s", c.Name, job.RecipeID))
		}
		out[i] = c
	}
	return out, msgs, nil
}
