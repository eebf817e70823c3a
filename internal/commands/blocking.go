package commands

import (
	"github.com/PipeManMusic/Talus-Tally-sub000/internal/models"
)

// UpdateBlockingRelationship replaces the active blocker for one node.
// Executing removes every existing relationship naming the blocked node
// before adding the new one, which is what keeps the at-most-one-active-
// blocker policy; an empty blocker ID clears the relationship. Undo
// restores the previous blocker if there was one.
type UpdateBlockingRelationship struct {
	rels          *[]models.BlockingRelationship
	blockedNodeID string
	newBlockerID  string
	prevBlockerID string
}

// NewUpdateBlockingRelationship builds the command against the list the
// session owns. blockerID may be empty to clear.
func NewUpdateBlockingRelationship(rels *[]models.BlockingRelationship, blockedNodeID, blockerID string) *UpdateBlockingRelationship {
	return &UpdateBlockingRelationship{
		rels:          rels,
		blockedNodeID: blockedNodeID,
		newBlockerID:  blockerID,
	}
}

func (c *UpdateBlockingRelationship) Name() string { return "update-blocking-relationship" }

func (c *UpdateBlockingRelationship) Execute() error {
	c.prevBlockerID = ""
	for _, rel := range *c.rels {
		if rel.BlockedNodeID == c.blockedNodeID {
			c.prevBlockerID = rel.BlockingNodeID
			break
		}
	}

	c.removeBlocked()
	if c.newBlockerID != "" {
		*c.rels = append(*c.rels, models.BlockingRelationship{
			BlockedNodeID:  c.blockedNodeID,
			BlockingNodeID: c.newBlockerID,
		})
	}
	return nil
}

func (c *UpdateBlockingRelationship) Undo() error {
	c.removeBlocked()
	if c.prevBlockerID != "" {
		*c.rels = append(*c.rels, models.BlockingRelationship{
			BlockedNodeID:  c.blockedNodeID,
			BlockingNodeID: c.prevBlockerID,
		})
	}
	return nil
}

// removeBlocked drops every relationship naming the blocked node.
func (c *UpdateBlockingRelationship) removeBlocked() {
	kept := (*c.rels)[:0]
	for _, rel := range *c.rels {
		if rel.BlockedNodeID != c.blockedNodeID {
			kept = append(kept, rel)
		}
	}
	*c.rels = kept
}
