package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Category is a main journal category.
type Category string

// Main categories. The set is fixed; Unknown marks a failed classification.
const (
	CategoryReflection    Category = "Reflection"
	CategoryGoals         Category = "Goals"
	CategoryEmotions      Category = "Emotions"
	CategoryPlans         Category = "Plans"
	CategoryRelationships Category = "Relationships"
	CategoryChallenges    Category = "Challenges"
	CategoryGratitude     Category = "Gratitude"
	CategoryHealth        Category = "Health"
	CategoryHabits        Category = "Habits"
	CategoryUnknown       Category = "Unknown"
)

// CategoryDefinition pairs a main category with the description the
// classifier scores against and its sub-category vocabulary.
type CategoryDefinition struct {
	Name          Category `yaml:"name"`
	Description   string   `yaml:"description"`
	SubCategories []string `yaml:"sub_categories"`
}

// Taxonomy is the bidirectional category table. Build it once with
// NewTaxonomy and share it; it is read-only afterwards.
type Taxonomy struct {
	byName        map[Category]CategoryDefinition
	byDescription map[string]Category
	order         []Category
}

// DefaultCategories returns the built-in category definitions in display order.
func DefaultCategories() []CategoryDefinition {
	return []CategoryDefinition{
		{
			Name:          CategoryReflection,
			Description:   "A personal reflection, insight, lesson learned, or thoughtful observation about life experiences",
			SubCategories: []string{"Self-Awareness", "Lesson Learned", "Perspective Shift", "Acceptance"},
		},
		{
			Name:          CategoryGoals,
			Description:   "A goal, aspiration, desired achievement, or future ambition including career, personal, or financial objectives",
			SubCategories: []string{"Savings/Finance", "Career/Skill", "Education/Learning", "Health/Fitness", "Habit Building", "Relationship", "Home/Organizing", "Travel", "Creative/Art"},
		},
		{
			Name:          CategoryEmotions,
			Description:   "An emotional state, feeling, mood, or expression (e.g., happiness, sadness, anger, anxiety)",
			SubCategories: []string{"Anxiety", "Sadness", "Anger", "Frustration", "Stress", "Loneliness", "Joy", "Calm", "Contentment", "Grief"},
		},
		{
			Name:          CategoryPlans,
			Description:   "A concrete plan, task, intention, decision, or specific action item for the near or distant future",
			SubCategories: []string{"Work/Tasks", "Errands", "Appointments", "Study Plan", "Fitness Plan", "Meal Prep", "Travel Plan"},
		},
		{
			Name:          CategoryRelationships,
			Description:   "Thoughts or experiences about family, friends, romantic partners, or social connections",
			SubCategories: []string{"Family", "Romantic", "Friends", "Colleagues", "Conflict", "Support"},
		},
		{
			Name:          CategoryChallenges,
			Description:   "A problem, difficulty, obstacle, or struggle being faced or overcome",
			SubCategories: []string{"Time Management", "Financial Pressure", "Workload", "Motivation", "Procrastination", "Imposter Syndrome"},
		},
		{
			Name:          CategoryGratitude,
			Description:   "Thankfulness, appreciation, or recognition of positive things in life",
			SubCategories: []string{"People", "Work", "Nature", "Health", "Small Joys"},
		},
		{
			Name:          CategoryHealth,
			Description:   "Physical health, mental wellness, fitness, medical concerns, or self-care activities",
			SubCategories: []string{"Exercise", "Sleep", "Nutrition", "Mental Health", "Medical Checkup", "Medication", "Therapy"},
		},
		{
			Name:          CategoryHabits,
			Description:   "Daily or weekly routines, consistency, discipline, breaking or building habits",
			SubCategories: []string{"Phone/Screen Time", "Discipline", "Routine", "Focus", "Consistency"},
		},
	}
}

// NewTaxonomy builds the lookup tables. Names and descriptions must be unique.
func NewTaxonomy(defs []CategoryDefinition) (*Taxonomy, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("taxonomy needs at least one category")
	}

	t := &Taxonomy{
		byName:        make(map[Category]CategoryDefinition, len(defs)),
		byDescription: make(map[string]Category, len(defs)),
		order:         make([]Category, 0, len(defs)),
	}

	for _, def := range defs {
		if def.Name == "" || def.Description == "" {
			return nil, fmt.Errorf("category %q: name and description are required", def.Name)
		}
		if def.Name == CategoryUnknown {
			return nil, fmt.Errorf("%q is reserved", CategoryUnknown)
		}
		if _, dup := t.byName[def.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", def.Name)
		}
		if _, dup := t.byDescription[def.Description]; dup {
			return nil, fmt.Errorf("duplicate description for category %q", def.Name)
		}
		t.byName[def.Name] = def
		t.byDescription[def.Description] = def.Name
		t.order = append(t.order, def.Name)
	}

	return t, nil
}

// DefaultTaxonomy returns the built-in taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := NewTaxonomy(DefaultCategories())
	if err != nil {
		panic(err) // built-in table is static
	}
	return t
}

// LoadTaxonomyFile reads category definitions from a YAML file of the form
//
//	categories:
//	  - name: Goals
//	    description: ...
//	    sub_categories: [Travel, Career/Skill]
func LoadTaxonomyFile(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user supplied config path
	if err != nil {
		return nil, fmt.Errorf("failed to read taxonomy file: %w", err)
	}

	var doc struct {
		Categories []CategoryDefinition `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse taxonomy file %s: %w", path, err)
	}

	return NewTaxonomy(doc.Categories)
}

// Categories returns the main categories in table order.
func (t *Taxonomy) Categories() []Category {
	out := make([]Category, len(t.order))
	copy(out, t.order)
	return out
}

// Descriptions returns the candidate labels for the main classification pass.
func (t *Taxonomy) Descriptions() []string {
	out := make([]string, 0, len(t.order))
	for _, name := range t.order {
		out = append(out, t.byName[name].Description)
	}
	return out
}

// CategoryForDescription maps a description back to its category, or Unknown.
func (t *Taxonomy) CategoryForDescription(desc string) Category {
	if name, ok := t.byDescription[desc]; ok {
		return name
	}
	return CategoryUnknown
}

// Description returns the description for a category.
func (t *Taxonomy) Description(name Category) (string, bool) {
	def, ok := t.byName[name]
	return def.Description, ok
}

// SubCategories returns the sub-category vocabulary of a category, or nil.
func (t *Taxonomy) SubCategories(name Category) []string {
	def, ok := t.byName[name]
	if !ok || len(def.SubCategories) == 0 {
		return nil
	}
	out := make([]string, len(def.SubCategories))
	copy(out, def.SubCategories)
	return out
}
