package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Turn roles used as the JSON discriminator.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// SystemTurn is a question posed by the interviewer. Answer and Evaluation
// stay empty until the candidate responds.
type SystemTurn struct {
	Question      string        `json:"question" validate:"required"`
	Category      string        `json:"category,omitempty"`
	QuestionCount QuestionCount `json:"question_count"`
	StrategyNote  string        `json:"strategy_note,omitempty"`
	IsClosed      bool          `json:"isClosed"`
	Answer        *string       `json:"answer,omitempty"`
	Evaluation    *Verdict      `json:"evaluation,omitempty"`
	AskedAt       time.Time     `json:"asked_at"`
}

// Answered reports whether the candidate has responded to this question.
func (s *SystemTurn) Answered() bool {
	return s.Answer != nil
}

// UserTurn records a candidate answer together with its verdict.
type UserTurn struct {
	Question   string    `json:"question"`
	Answer     string    `json:"answer"`
	Evaluation Verdict   `json:"evaluation"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Turn is one transcript entry. Exactly one of System and User is set.
type Turn struct {
	System *SystemTurn
	User   *UserTurn
}

// Role returns the discriminator for the populated variant.
func (t Turn) Role() string {
	if t.User != nil {
		return RoleUser
	}
	return RoleSystem
}

type systemTurnJSON struct {
	Role string `json:"role"`
	SystemTurn
}

type userTurnJSON struct {
	Role string `json:"role"`
	UserTurn
}

func (t Turn) MarshalJSON() ([]byte, error) {
	switch {
	case t.System != nil && t.User == nil:
		return json.Marshal(systemTurnJSON{Role: RoleSystem, SystemTurn: *t.System})
	case t.User != nil && t.System == nil:
		return json.Marshal(userTurnJSON{Role: RoleUser, UserTurn: *t.User})
	}
	return nil, errors.New("turn must hold exactly one of system or user")
}

func (t *Turn) UnmarshalJSON(data []byte) error {
	var probe struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	switch probe.Role {
	case RoleSystem:
		var s systemTurnJSON
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Turn{System: &s.SystemTurn}
	case RoleUser:
		var u userTurnJSON
		if err := json.Unmarshal(data, &u); err != nil {
			return err
		}
		*t = Turn{User: &u.UserTurn}
	default:
		return fmt.Errorf("unknown turn role %q", probe.Role)
	}
	return nil
}

// Conversation is the ordered interview transcript. It is stored as a single
// JSON column.
type Conversation []Turn

// Value implements driver.Valuer.
func (c Conversation) Value() (driver.Value, error) {
	if c == nil {
		c = Conversation{}
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *Conversation) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*c = Conversation{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Conversation", value)
	}
	if len(data) == 0 {
		*c = Conversation{}
		return nil
	}
	return json.Unmarshal(data, c)
}

// LastSystem returns the most recent system turn, or nil.
func (c Conversation) LastSystem() *SystemTurn {
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].System != nil {
			return c[i].System
		}
	}
	return nil
}

// Closed reports whether the last system turn ended the interview.
func (c Conversation) Closed() bool {
	last := c.LastSystem()
	return last != nil && last.IsClosed
}

// Count returns the tally on the last system turn.
func (c Conversation) Count() QuestionCount {
	if last := c.LastSystem(); last != nil {
		return last.QuestionCount
	}
	return QuestionCount{PerCategory: map[string]int{}}
}

// SystemTurns counts the questions asked so far.
func (c Conversation) SystemTurns() int {
	n := 0
	for _, t := range c {
		if t.System != nil {
			n++
		}
	}
	return n
}

// TrailingRejections counts consecutive rejected answers at the end of the
// transcript.
func (c Conversation) TrailingRejections() int {
	n := 0
	for i := len(c) - 1; i >= 0; i-- {
		if c[i].User == nil {
			continue
		}
		if c[i].User.Evaluation.Status {
			break
		}
		n++
	}
	return n
}

// Clone returns a copy that can be modified without touching c.
func (c Conversation) Clone() Conversation {
	out := make(Conversation, len(c))
	for i, t := range c {
		if t.System != nil {
			s := *t.System
			out[i] = Turn{System: &s}
		} else if t.User != nil {
			u := *t.User
			out[i] = Turn{User: &u}
		}
	}
	return out
}

var validate = validator.New()

// Validate checks the transcript shape before it is written: each turn holds
// one variant, user turns directly follow an answered system turn, only the
// last system turn may be unanswered, and the tally on every system turn
// matches the questions asked so far.
func (c Conversation) Validate() error {
	systems := 0
	for i, t := range c {
		if (t.System == nil) == (t.User == nil) {
			return fmt.Errorf("turn %d: must hold exactly one of system or user", i)
		}

		if t.User != nil {
			if i == 0 || c[i-1].System == nil {
				return fmt.Errorf("turn %d: user turn must follow a system turn", i)
			}
			if !c[i-1].System.Answered() {
				return fmt.Errorf("turn %d: preceding system turn is not annotated with the answer", i)
			}
			if err := validate.Struct(t.User.Evaluation); err != nil {
				return fmt.Errorf("turn %d: %w", i, err)
			}
			continue
		}

		systems++
		s := t.System
		if err := validate.Struct(s); err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
		if i < len(c)-1 && !s.Answered() {
			return fmt.Errorf("turn %d: only the last system turn may be unanswered", i)
		}
		if s.QuestionCount.Total != systems {
			return fmt.Errorf("turn %d: question_count.total is %d, want %d", i, s.QuestionCount.Total, systems)
		}
		if sum := s.QuestionCount.Sum(); sum != s.QuestionCount.Total {
			return fmt.Errorf("turn %d: per_category sums to %d, want %d", i, sum, s.QuestionCount.Total)
		}
	}
	return nil
}
