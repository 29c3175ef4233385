package render

import "fmt"

// Action names a single mirror edit.
type Action string

const (
	ActionAdd    Action = "add"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionLink   Action = "link"
	ActionUnlink Action = "unlink"
)

// EditReport describes a completed mirror edit.
type EditReport struct {
	Action       Action `json:"action" yaml:"action"`
	Course       string `json:"course" yaml:"course"`
	Name         string `json:"name,omitempty" yaml:"name,omitempty"`
	Prerequisite string `json:"prerequisite,omitempty" yaml:"prerequisite,omitempty"`
	Target       string `json:"target" yaml:"target"`
}

// Edited confirms a db subcommand.
func (r *Renderer) Edited(rep EditReport) error {
	if ok, err := r.structured(rep); ok {
		return err
	}

	var msg string
	switch rep.Action {
	case ActionAdd:
		msg = fmt.Sprintf("Added course %s, %s", rep.Course, rep.Name)
	case ActionUpdate:
		msg = fmt.Sprintf("Updated course %s, %s", rep.Course, rep.Name)
	case ActionDelete:
		msg = fmt.Sprintf("Deleted course %s and its prerequisite links", rep.Course)
	case ActionLink:
		msg = fmt.Sprintf("Added prerequisite %s to %s", rep.Prerequisite, rep.Course)
	case ActionUnlink:
		msg = fmt.Sprintf("Removed prerequisite %s from %s", rep.Prerequisite, rep.Course)
	default:
		msg = fmt.Sprintf("%s %s", rep.Action, rep.Course)
	}
	r.println(msg)
	r.printf("Target: %s\n", rep.Target)
	return nil
}

// ClearReport describes a cache removal.
type ClearReport struct {
	Path    string `json:"path" yaml:"path"`
	Removed bool   `json:"removed" yaml:"removed"`
}

// Cleared confirms the clear command.
func (r *Renderer) Cleared(rep ClearReport) error {
	if ok, err := r.structured(rep); ok {
		return err
	}
	if rep.Removed {
		r.println("Cache cleared successfully")
		return nil
	}
	r.printf("No cache file at %s\n", rep.Path)
	return nil
}
