package producer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runoshun/taskstream/internal/domain"
)

// Planner yields the tasks of a plan one at a time.
type Planner interface {
	// NextTask returns the task that follows prior for prompt.
	// ok is false once the plan is complete.
	NextTask(ctx context.Context, prompt string, prior []domain.Task) (task domain.Task, ok bool, err error)
}

// PlannerFunc adapts a function to Planner.
type PlannerFunc func(ctx context.Context, prompt string, prior []domain.Task) (domain.Task, bool, error)

// NextTask calls f.
func (f PlannerFunc) NextTask(ctx context.Context, prompt string, prior []domain.Task) (domain.Task, bool, error) {
	return f(ctx, prompt, prior)
}

// promptPlaceholder is replaced by the request prompt in plan text.
const promptPlaceholder = "{{prompt}}"

// PlanEntry is one task in a plan file.
type PlanEntry struct {
	ID          string   `yaml:"id,omitempty"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Error       string   `yaml:"error,omitempty"` // Fails the stream with this detail when reached
	Tags        []string `yaml:"tags,omitempty"`
}

// PlanFile is a fixed plan loaded from YAML.
type PlanFile struct {
	Tasks []PlanEntry `yaml:"tasks"`
}

// Ensure PlanFile implements Planner.
var _ Planner = (*PlanFile)(nil)

// LoadPlanFile reads a YAML plan.
func LoadPlanFile(path string) (*PlanFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan: %w", err)
	}
	return ParsePlan(data)
}

// ParsePlan decodes a YAML plan.
func ParsePlan(data []byte) (*PlanFile, error) {
	var p PlanFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan: %w", err)
	}
	if len(p.Tasks) == 0 {
		return nil, domain.ErrPlanEmpty
	}
	for i, e := range p.Tasks {
		if e.Error == "" && strings.TrimSpace(e.Title) == "" {
			return nil, fmt.Errorf("parse plan: task %d: title is required", i+1)
		}
	}
	return &p, nil
}

// NextTask returns the entry after the ones already sent.
func (p *PlanFile) NextTask(_ context.Context, prompt string, prior []domain.Task) (domain.Task, bool, error) {
	if len(prior) >= len(p.Tasks) {
		return domain.Task{}, false, nil
	}
	e := p.Tasks[len(prior)]
	if e.Error != "" {
		return domain.Task{}, false, errors.New(expand(e.Error, prompt))
	}
	return domain.Task{
		ID:          e.ID,
		Title:       expand(e.Title, prompt),
		Description: expand(e.Description, prompt),
		Tags:        slices.Clone(e.Tags),
	}, true, nil
}

func expand(s, prompt string) string {
	return strings.ReplaceAll(s, promptPlaceholder, prompt)
}

// outlineStep is one stage of the built-in plan.
type outlineStep struct {
	title       string
	description string
	tags        []string
}

var outline = []outlineStep{
	{
		title:       "Clarify the scope of {{prompt}}",
		description: "List the core user journeys for {{prompt}}, agree on what is out of scope for the first release, and write the acceptance criteria for each journey.",
		tags:        []string{"Planning"},
	},
	{
		title:       "Design the data model",
		description: "Identify the main entities behind {{prompt}}, their relations and lifecycle, and choose a storage engine that fits the expected read and write patterns.",
		tags:        []string{"Backend", "Database"},
	},
	{
		title:       "Implement the backend API",
		description: "Expose the entities through a versioned HTTP API with input validation, consistent error envelopes and structured request logging.",
		tags:        []string{"Backend"},
	},
	{
		title:       "Build the user interface",
		description: "Create the screens for each core journey, wire them to the API, and handle loading and error states explicitly.",
		tags:        []string{"Frontend", "UI"},
	},
	{
		title:       "Set up continuous integration",
		description: "Run linting, unit tests and a production build on every push, and block merges on failures.",
		tags:        []string{"DevOps"},
	},
	{
		title:       "Write end-to-end tests",
		description: "Cover every acceptance criterion of {{prompt}} with an automated end-to-end test running against a disposable environment.",
		tags:        []string{"Testing"},
	},
	{
		title:       "Deploy to production",
		description: "Provision the runtime environment, configure secrets and monitoring, and roll out {{prompt}} behind a health-checked deployment.",
		tags:        []string{"DevOps"},
	},
}

// OutlinePlanner derives a fixed delivery outline from any prompt.
type OutlinePlanner struct{}

// Ensure OutlinePlanner implements Planner.
var _ Planner = OutlinePlanner{}

// NextTask returns the next outline stage.
func (OutlinePlanner) NextTask(_ context.Context, prompt string, prior []domain.Task) (domain.Task, bool, error) {
	if len(prior) >= len(outline) {
		return domain.Task{}, false, nil
	}
	step := outline[len(prior)]
	return domain.Task{
		Title:       expand(step.title, prompt),
		Description: expand(step.description, prompt),
		Tags:        slices.Clone(step.tags),
	}, true, nil
}
