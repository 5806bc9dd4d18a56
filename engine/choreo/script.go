package choreo

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Carmen-Shannon/wisp-go/common"
	"github.com/Carmen-Shannon/wisp-go/engine/swarm"
)

// Script is a phase table parsed from a YAML scene script. It carries only
// declarative data; enter/exit one-shots and the terminal action are code and
// get attached through the builder options when the choreography is built.
type Script struct {
	CompletionThreshold float32
	Phases              []Phase
}

type scriptFile struct {
	CompletionThreshold float32       `yaml:"completion_threshold"`
	Phases              []scriptPhase `yaml:"phases"`
}

type scriptPhase struct {
	Name           string                 `yaml:"name"`
	Start          float32                `yaml:"start"`
	End            float32                `yaml:"end"`
	Camera         []scriptKeyframe       `yaml:"camera"`
	Lights         map[string]scriptLight `yaml:"lights"`
	ForceModel     *scriptForceModel      `yaml:"force_model"`
	SwarmIntensity *float32               `yaml:"swarm_intensity"`
}

type scriptKeyframe struct {
	T        float32    `yaml:"t"`
	Position [3]float32 `yaml:"position"`
	Target   [3]float32 `yaml:"target"`
	Tilt     float32    `yaml:"tilt"`
	Easing   string     `yaml:"easing"`
}

type scriptLight struct {
	Intensity float32    `yaml:"intensity"`
	Color     [3]float32 `yaml:"color"`
	Position  [3]float32 `yaml:"position"`
}

type scriptForceModel struct {
	Type     string     `yaml:"type"`
	Target   [3]float32 `yaml:"target"`
	Strength float32    `yaml:"strength"`
}

// LoadScriptFile reads and parses a YAML scene script from disk.
//
// Parameters:
//   - path: the script file path
//
// Returns:
//   - Script: the parsed phase table
//   - error: error if the file cannot be read or parsed
func LoadScriptFile(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("choreo: reading script %s: %w", path, err)
	}
	return ParseScript(data)
}

// ParseScript parses a YAML scene script. Phase range and keyframe ordering
// problems are left for NewChoreography to report; this only rejects data
// that cannot be represented at all (unknown easing or force model names).
//
// Parameters:
//   - data: the raw YAML document
//
// Returns:
//   - Script: the parsed phase table
//   - error: error describing the first parse problem found
func ParseScript(data []byte) (Script, error) {
	var file scriptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Script{}, fmt.Errorf("choreo: parsing script: %w", err)
	}

	script := Script{
		CompletionThreshold: file.CompletionThreshold,
		Phases:              make([]Phase, 0, len(file.Phases)),
	}
	if script.CompletionThreshold == 0 {
		script.CompletionThreshold = DefaultCompletionThreshold
	}

	for _, sp := range file.Phases {
		phase := Phase{
			Name:           sp.Name,
			Start:          sp.Start,
			End:            sp.End,
			SwarmIntensity: sp.SwarmIntensity,
		}

		for _, kf := range sp.Camera {
			ease, err := common.ParseEase(kf.Easing)
			if err != nil {
				return Script{}, fmt.Errorf("choreo: phase %q: %w", sp.Name, err)
			}
			phase.CameraKeyframes = append(phase.CameraKeyframes, CameraKeyframe{
				LocalT:   kf.T,
				Position: kf.Position,
				Target:   kf.Target,
				Tilt:     kf.Tilt,
				Easing:   ease,
			})
		}

		if len(sp.Lights) > 0 {
			phase.LightTargets = make(map[string]LightTarget, len(sp.Lights))
			for name, sl := range sp.Lights {
				phase.LightTargets[name] = LightTarget{
					Intensity: sl.Intensity,
					Color:     sl.Color,
					Position:  sl.Position,
				}
			}
		}

		if sp.ForceModel != nil {
			fm, err := parseForceModel(sp.ForceModel)
			if err != nil {
				return Script{}, fmt.Errorf("choreo: phase %q: %w", sp.Name, err)
			}
			phase.ForceModel = fm
		}

		script.Phases = append(script.Phases, phase)
	}

	return script, nil
}

func parseForceModel(sfm *scriptForceModel) (swarm.ForceModel, error) {
	switch sfm.Type {
	case "", "free":
		return swarm.ForceModel{Type: swarm.ForceModelFree}, nil
	case "attract":
		return swarm.ForceModel{
			Type:     swarm.ForceModelAttract,
			Target:   sfm.Target,
			Strength: sfm.Strength,
		}, nil
	default:
		return swarm.ForceModel{}, fmt.Errorf("unknown force model %q", sfm.Type)
	}
}
