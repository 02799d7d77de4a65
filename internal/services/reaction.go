package services

import (
	"fmt"
	"slices"

	"github.com/abrahamjose02/Article-Feed-Api/types"
)

// ReactionState is one user's standing towards one article.
type ReactionState int

const (
	StateNeutral ReactionState = iota
	StateLiked
	StateDisliked
	StateBlocked
)

func (s ReactionState) String() string {
	switch s {
	case StateLiked:
		return "liked"
	case StateDisliked:
		return "disliked"
	case StateBlocked:
		return "blocked"
	default:
		return "neutral"
	}
}

// ReactionAction is the single set mutation a transition resolves to.
type ReactionAction int

const (
	ActionAdd ReactionAction = iota + 1
	ActionRemove
)

// ReactionStateOf derives userID's state from the article's sets. Blocking
// wins over any reaction recorded before the block.
func ReactionStateOf(article types.Article, userID string) ReactionState {
	switch {
	case slices.Contains(article.BlockedBy, userID):
		return StateBlocked
	case slices.Contains(article.LikedBy, userID):
		return StateLiked
	case slices.Contains(article.DislikedBy, userID):
		return StateDisliked
	default:
		return StateNeutral
	}
}

// Transition resolves a like or dislike request against the current state.
//
//	current   | like               | dislike
//	----------+--------------------+-------------------
//	blocked   | ErrBlockedConflict | ErrBlockedConflict
//	neutral   | add to likes       | add to dislikes
//	liked     | remove from likes  | ErrOppositeReaction
//	disliked  | ErrOppositeReaction| remove from dislikes
func Transition(state ReactionState, kind types.ReactionKind) (ReactionAction, error) {
	if kind != types.ReactionLike && kind != types.ReactionDislike {
		return 0, fmt.Errorf("%w: unknown reaction %q", ErrValidation, kind)
	}

	switch state {
	case StateBlocked:
		return 0, fmt.Errorf("%w: cannot %s a blocked article", ErrBlockedConflict, kind)
	case StateNeutral:
		return ActionAdd, nil
	case StateLiked:
		if kind == types.ReactionLike {
			return ActionRemove, nil
		}
		return 0, fmt.Errorf("%w: undo like first", ErrOppositeReaction)
	case StateDisliked:
		if kind == types.ReactionDislike {
			return ActionRemove, nil
		}
		return 0, fmt.Errorf("%w: undo dislike first", ErrOppositeReaction)
	default:
		return 0, fmt.Errorf("unknown reaction state %d", state)
	}
}
