package topics

// Topic describes one entry in the static topic catalog.
type Topic struct {
	ID             string
	Name           string
	TotalQuestions int
}

// Catalog maps topic ids to their definitions. Mastery percentage is
// computed against TotalQuestions; unknown ids degrade to a flat award.
type Catalog struct {
	topics map[string]Topic
}

// Default returns the Physics Daily topic catalog.
func Default() *Catalog {
	return New([]Topic{
		{ID: "mechanics-foundations", Name: "Mechanics Foundations", TotalQuestions: 100},
		{ID: "mechanics-rotation", Name: "Rotational Motion", TotalQuestions: 80},
		{ID: "mechanics-energy", Name: "Energy & Gravitation", TotalQuestions: 90},
		{ID: "fluids-mechanics", Name: "Fluid Mechanics", TotalQuestions: 60},
		{ID: "waves-sound", Name: "Waves & Sound", TotalQuestions: 70},
		{ID: "thermodynamics", Name: "Thermodynamics", TotalQuestions: 85},
		{ID: "electromagnetism-electrostatics", Name: "Electrostatics", TotalQuestions: 120},
		{ID: "electromagnetism-current", Name: "Current & Magnetism", TotalQuestions: 110},
		{ID: "electromagnetism-ac", Name: "AC Circuits & Light", TotalQuestions: 95},
		{ID: "optics-geometric", Name: "Geometric Optics", TotalQuestions: 75},
		{ID: "optics-wave", Name: "Wave Properties of Light", TotalQuestions: 85},
		{ID: "modern-quantum", Name: "Quantum & Atomic Physics", TotalQuestions: 100},
		{ID: "modern-nuclear", Name: "Nuclear & Particle Physics", TotalQuestions: 80},
	})
}

func New(list []Topic) *Catalog {
	c := &Catalog{topics: make(map[string]Topic, len(list))}
	for _, t := range list {
		c.topics[t.ID] = t
	}
	return c
}

// Lookup returns the topic definition for id.
func (c *Catalog) Lookup(id string) (Topic, bool) {
	t, ok := c.topics[id]
	return t, ok
}

// IDs returns all topic ids.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.topics))
	for id := range c.topics {
		ids = append(ids, id)
	}
	return ids
}
