package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	sessionmodels "votacao/internal/session/models"
	id "votacao/pkg/domain"
	dErrors "votacao/pkg/domain-errors"
)

// Choice is a ballot option. JSON uses "Yes"/"No"; storage uses "YES"/"NO".
type Choice int

const (
	ChoiceYes Choice = iota + 1
	ChoiceNo
)

func (c Choice) String() string {
	switch c {
	case ChoiceYes:
		return "Yes"
	case ChoiceNo:
		return "No"
	default:
		return "Unknown"
	}
}

// DBValue is the persisted form.
func (c Choice) DBValue() string {
	return strings.ToUpper(c.String())
}

// ParseChoice accepts "Yes" or "No" in any letter case.
func ParseChoice(s string) (Choice, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes":
		return ChoiceYes, nil
	case "no":
		return ChoiceNo, nil
	default:
		return 0, dErrors.New(dErrors.CodeValidation, `vote must be "Yes" or "No"`)
	}
}

func (c Choice) MarshalJSON() ([]byte, error) {
	if c != ChoiceYes && c != ChoiceNo {
		return nil, fmt.Errorf("invalid choice %d", int(c))
	}
	return json.Marshal(c.String())
}

func (c *Choice) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return dErrors.New(dErrors.CodeValidation, `vote must be "Yes" or "No"`)
	}
	parsed, err := ParseChoice(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Vote is write-once. There is at most one per (AgendaID, VoterID).
type Vote struct {
	ID       id.VoteID   `json:"id"`
	AgendaID id.AgendaID `json:"agenda_id"`
	VoterID  id.VoterID  `json:"cpf"`
	Choice   Choice      `json:"vote"`
	VotedAt  time.Time   `json:"voted_at"`
}

// TallySnapshot is the derived result of an agenda.
type TallySnapshot struct {
	AgendaID id.AgendaID          `json:"agenda_id"`
	Yes      int64                `json:"yes"`
	No       int64                `json:"no"`
	Status   sessionmodels.Status `json:"status"`
}

func (t TallySnapshot) Total() int64 {
	return t.Yes + t.No
}

func (t TallySnapshot) Closed() bool {
	return t.Status == sessionmodels.StatusClosed
}

// Merge combines t with a later reading of the same agenda. Counts take the
// larger value per choice and a Closed status is kept.
func (t TallySnapshot) Merge(next TallySnapshot) TallySnapshot {
	next.Yes = max(t.Yes, next.Yes)
	next.No = max(t.No, next.No)
	if t.Closed() {
		next.Status = sessionmodels.StatusClosed
	}
	return next
}
