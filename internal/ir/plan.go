package ir

// NodeKind names a plan node. The set is closed; see ValidNodeKinds.
type NodeKind string

const (
	NodeDelay      NodeKind = "delay"
	NodeFrames     NodeKind = "frames"
	NodeEvent      NodeKind = "event"
	NodeWaitVar    NodeKind = "wait_var"
	NodeWaitSwitch NodeKind = "wait_switch"
	NodeSwitch     NodeKind = "switch"
	NodeSet        NodeKind = "set"
	NodeAdd        NodeKind = "add"
	NodeEmit       NodeKind = "emit"
	NodeLog        NodeKind = "log"
	NodeEffect     NodeKind = "effect"
	NodeRecord     NodeKind = "record"
	NodeUndo       NodeKind = "undo"
	NodeRedo       NodeKind = "redo"
	NodeSequence   NodeKind = "sequence"
	NodeRace       NodeKind = "race"
	NodeJoin       NodeKind = "join"
	NodeRepeat     NodeKind = "repeat"
)

// ValidNodeKinds lists every kind the compiler accepts.
var ValidNodeKinds = map[NodeKind]bool{
	NodeDelay:      true,
	NodeFrames:     true,
	NodeEvent:      true,
	NodeWaitVar:    true,
	NodeWaitSwitch: true,
	NodeSwitch:     true,
	NodeSet:        true,
	NodeAdd:        true,
	NodeEmit:       true,
	NodeLog:        true,
	NodeEffect:     true,
	NodeRecord:     true,
	NodeUndo:       true,
	NodeRedo:       true,
	NodeSequence:   true,
	NodeRace:       true,
	NodeJoin:       true,
	NodeRepeat:     true,
}

// Plan is a compiled, named task tree.
type Plan struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Steps       []PlanNode `json:"steps"`
}

// PlanNode is one node of a plan. Which fields are set depends on Kind:
//
//	delay        Duration
//	frames       Count
//	event        Event
//	wait_var     Var, Value
//	wait_switch  Switch, On
//	switch       Switch, On
//	set          Var, Value
//	add          Var, Count
//	emit         Event, Value
//	log          Message
//	effect       Duration, Value, Message (failure text)
//	record       Stack, Var, Value
//	undo, redo   Stack
//	sequence     Steps
//	race, join   Branches
//	repeat       Count (0 = forever), Steps
type PlanNode struct {
	Kind     NodeKind     `json:"kind"`
	Duration string       `json:"duration,omitempty"`
	Count    int64        `json:"count,omitempty"`
	Event    string       `json:"event,omitempty"`
	Var      string       `json:"var,omitempty"`
	Value    IRValue      `json:"value,omitempty"`
	Switch   string       `json:"switch,omitempty"`
	On       bool         `json:"on,omitempty"`
	Stack    string       `json:"stack,omitempty"`
	Message  string       `json:"message,omitempty"`
	Steps    []PlanNode   `json:"steps,omitempty"`
	Branches [][]PlanNode `json:"branches,omitempty"`
}

// ToValue converts the node to an IRObject, omitting empty fields.
func (n PlanNode) ToValue() IRObject {
	obj := IRObject{"kind": IRString(n.Kind)}
	if n.Duration != "" {
		obj["duration"] = IRString(n.Duration)
	}
	if n.Count != 0 {
		obj["count"] = IRInt(n.Count)
	}
	if n.Event != "" {
		obj["event"] = IRString(n.Event)
	}
	if n.Var != "" {
		obj["var"] = IRString(n.Var)
	}
	if n.Value != nil {
		obj["value"] = n.Value
	}
	if n.Switch != "" {
		obj["switch"] = IRString(n.Switch)
	}
	if n.On {
		obj["on"] = IRBool(true)
	}
	if n.Stack != "" {
		obj["stack"] = IRString(n.Stack)
	}
	if n.Message != "" {
		obj["message"] = IRString(n.Message)
	}
	if len(n.Steps) > 0 {
		obj["steps"] = nodesToValue(n.Steps)
	}
	if len(n.Branches) > 0 {
		branches := make(IRArray, len(n.Branches))
		for i, b := range n.Branches {
			branches[i] = nodesToValue(b)
		}
		obj["branches"] = branches
	}
	return obj
}

func nodesToValue(nodes []PlanNode) IRArray {
	arr := make(IRArray, len(nodes))
	for i, n := range nodes {
		arr[i] = n.ToValue()
	}
	return arr
}

// ToValue converts the plan to an IRObject.
func (p Plan) ToValue() IRObject {
	obj := IRObject{
		"name":  IRString(p.Name),
		"steps": nodesToValue(p.Steps),
	}
	if p.Description != "" {
		obj["description"] = IRString(p.Description)
	}
	return obj
}

// MarshalCanonical renders the plan as canonical JSON.
func (p Plan) MarshalCanonical() ([]byte, error) {
	return MarshalCanonical(p.ToValue())
}
