package script

import (
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// discriminatorOf names the body variant for line-id synthesis, kept
// stable across Go type renames by switching on the concrete type rather
// than reflect.TypeOf(...).String().
func discriminatorOf(body LineBody) string {
	switch body.(type) {
	case Message:
		return keyMessage
	case Confirm:
		return keyConfirm
	case Choice:
		return keyChoice
	case Eval:
		return keyEval
	case Goto:
		return keyGoto
	case Call:
		return keyCall
	case Return:
		return keyReturn
	case Exit:
		return keyExit
	default:
		return "unknown"
	}
}

// synthesizeLineID derives a content-addressed, load-stable id for a line
// that the author left unlabeled: the same (node key, position,
// discriminator) tuple always hashes to the same id, so re-parsing the
// same script never reshuffles `lines.<id>` handles.
func synthesizeLineID(nodeKey NodeKey, position int, body LineBody) string {
	h := blake3.New()
	fmt.Fprintf(h, "%s\x00%d\x00%s", nodeKey, position, discriminatorOf(body))
	sum := h.Sum(nil)
	return "ln_" + hex.EncodeToString(sum[:8])
}

// assignLineIDs fills in every Line.ID left blank by the author, in place,
// across all nodes. Called once after a successful parse.
func assignLineIDs(d *Dialogue) {
	for _, key := range d.Nodes.Keys {
		lines := d.Nodes.Items[key]
		for i := range lines {
			if lines[i].ID == "" {
				lines[i].ID = synthesizeLineID(key, i, lines[i].Body)
			}
		}
	}
}
