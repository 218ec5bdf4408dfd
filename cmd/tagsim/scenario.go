package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/tagframe"
	"gopkg.in/yaml.v3"
)

// Scenario is the YAML description of a simulation run.
type Scenario struct {
	Frames    int              `yaml:"frames"`
	History   int              `yaml:"history"`
	Viewports int              `yaml:"viewports"`
	Width     uint32           `yaml:"width"`
	Height    uint32           `yaml:"height"`
	BudgetMB  int              `yaml:"budget_mb"`
	Producers []ProducerConfig `yaml:"producers"`
	Consumers []ConsumerConfig `yaml:"consumers"`
}

// ProducerConfig is one tag set by every viewport each frame.
type ProducerConfig struct {
	Type      string `yaml:"type"`
	Lifecycle string `yaml:"lifecycle"`
}

// ConsumerConfig is one lookup made for every viewport each frame.
type ConsumerConfig struct {
	Type string `yaml:"type"`

	// Mode is "evaluate" or "present".
	Mode     string `yaml:"mode"`
	Optional bool   `yaml:"optional"`
}

const defaultScenario = `
frames: 64
history: 8
viewports: 2
width: 1920
height: 1080
budget_mb: 128
producers:
  - type: Depth
    lifecycle: ValidUntilPresent
  - type: MotionVectors
    lifecycle: OnlyValidNow
  - type: HUDLessColor
    lifecycle: OnlyValidNow
  - type: ScalingOutputColor
    lifecycle: OnlyValidNow
consumers:
  - type: MotionVectors
    mode: evaluate
  - type: HUDLessColor
    mode: present
  - type: Depth
    mode: present
  - type: Exposure
    mode: evaluate
    optional: true
`

// producer and consumer are validated scenario entries.
type producer struct {
	typ       tagframe.BufferType
	lifecycle tagframe.ResourceLifecycle
}

type consumer struct {
	typ      tagframe.BufferType
	evaluate bool
	optional bool
}

var errInvalidScenario = errors.New("invalid scenario")

// loadScenario reads a scenario file. An empty path selects the built-in
// scenario.
func loadScenario(path string) (*Scenario, error) {
	if path == "" {
		return parseScenario([]byte(defaultScenario))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return parseScenario(data)
}

// parseScenario decodes YAML and fills in defaults.
func parseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{}
	if err := yaml.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if sc.History == 0 {
		sc.History = tagframe.DefaultHistoryDepth
	}
	if sc.Viewports == 0 {
		sc.Viewports = 1
	}
	if sc.Width == 0 {
		sc.Width = 1920
	}
	if sc.Height == 0 {
		sc.Height = 1080
	}
	if _, _, err := sc.compile(); err != nil {
		return nil, err
	}
	return sc, nil
}

// compile validates the scenario and resolves names.
func (sc *Scenario) compile() ([]producer, []consumer, error) {
	if sc.Frames <= 0 {
		return nil, nil, fmt.Errorf("%w: frames must be positive, got %d", errInvalidScenario, sc.Frames)
	}
	if sc.Viewports < 0 {
		return nil, nil, fmt.Errorf("%w: negative viewports", errInvalidScenario)
	}

	producers := make([]producer, 0, len(sc.Producers))
	for i, p := range sc.Producers {
		typ, ok := tagframe.ParseBufferType(p.Type)
		if !ok {
			return nil, nil, fmt.Errorf("%w: producer %d: unknown buffer type %q", errInvalidScenario, i, p.Type)
		}
		lifecycle := tagframe.OnlyValidNow
		if p.Lifecycle != "" {
			if lifecycle, ok = tagframe.ParseLifecycle(p.Lifecycle); !ok {
				return nil, nil, fmt.Errorf("%w: producer %d: unknown lifecycle %q", errInvalidScenario, i, p.Lifecycle)
			}
		}
		producers = append(producers, producer{typ: typ, lifecycle: lifecycle})
	}

	consumers := make([]consumer, 0, len(sc.Consumers))
	for i, c := range sc.Consumers {
		typ, ok := tagframe.ParseBufferType(c.Type)
		if !ok {
			return nil, nil, fmt.Errorf("%w: consumer %d: unknown buffer type %q", errInvalidScenario, i, c.Type)
		}
		var evaluate bool
		switch c.Mode {
		case "evaluate":
			evaluate = true
		case "present", "":
		default:
			return nil, nil, fmt.Errorf("%w: consumer %d: unknown mode %q", errInvalidScenario, i, c.Mode)
		}
		consumers = append(consumers, consumer{typ: typ, evaluate: evaluate, optional: c.Optional})
	}
	return producers, consumers, nil
}
