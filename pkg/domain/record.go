package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Ref is a reference to another question. The remote store may return it
// either as a plain id string or as a populated document ({"_id": "..."}).
type Ref string

// UnmarshalJSON accepts a string, a populated object or null.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = Ref(s)
		return nil
	}
	var doc struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = Ref(doc.ID)
	return nil
}

// String returns the referenced id.
func (r Ref) String() string { return string(r) }

// RecordOption is an option as stored remotely.
type RecordOption struct {
	Label          string      `json:"label"`
	ActionType     ActionType  `json:"actionType,omitempty"`
	NextQuestionID Ref         `json:"nextQuestionId,omitempty"`
	ActionValue    string      `json:"actionValue,omitempty"`
	ButtonStyle    ButtonStyle `json:"buttonStyle,omitzero"`
}

// Record is a question document as exchanged with the remote store.
type Record struct {
	ID              string           `json:"_id"`
	Type            RecordType       `json:"type"`
	Text            string           `json:"text"`
	Position        *Position        `json:"position,omitempty"`
	Options         []RecordOption   `json:"options,omitempty"`
	DataCollection  *DataCollection  `json:"dataCollection,omitempty"`
	MessageSettings *MessageSettings `json:"messageSettings,omitempty"`
	IsFirst         bool             `json:"isFirst,omitempty"`
	NextQuestionID  Ref              `json:"nextQuestionId,omitempty"`
	FlowID          string           `json:"flowId,omitempty"`
	NodeType        string           `json:"nodeType,omitempty"`
	TenantID        string           `json:"uniquePartnerId,omitempty"`
	UpdatedAt       time.Time        `json:"updatedAt,omitzero"`
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	c := r
	if r.Position != nil {
		p := *r.Position
		c.Position = &p
	}
	if r.Options != nil {
		c.Options = append([]RecordOption(nil), r.Options...)
	}
	if r.DataCollection != nil {
		d := *r.DataCollection
		c.DataCollection = &d
	}
	if r.MessageSettings != nil {
		m := *r.MessageSettings
		c.MessageSettings = &m
	}
	return c
}

// RecordPatch is a partial update. Nil fields are left untouched.
// ClearNext removes nextQuestionId; ClearOptions empties the option list.
type RecordPatch struct {
	Text            *string          `json:"text,omitempty"`
	Type            *RecordType      `json:"type,omitempty"`
	Position        *Position        `json:"position,omitempty"`
	Options         []RecordOption   `json:"options,omitempty"`
	ClearOptions    bool             `json:"-"`
	DataCollection  *DataCollection  `json:"dataCollection,omitempty"`
	MessageSettings *MessageSettings `json:"messageSettings,omitempty"`
	NextQuestionID  *string          `json:"nextQuestionId,omitempty"`
	ClearNext       bool             `json:"-"`
}

// MarshalJSON renders cleared fields as explicit nulls / empty lists so a
// remote store can tell "clear" from "leave alone".
func (p RecordPatch) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if p.Text != nil {
		out["text"] = *p.Text
	}
	if p.Type != nil {
		out["type"] = *p.Type
	}
	if p.Position != nil {
		out["position"] = p.Position
	}
	switch {
	case p.ClearOptions:
		out["options"] = []RecordOption{}
	case p.Options != nil:
		out["options"] = p.Options
	}
	if p.DataCollection != nil {
		out["dataCollection"] = p.DataCollection
	}
	if p.MessageSettings != nil {
		out["messageSettings"] = p.MessageSettings
	}
	switch {
	case p.ClearNext:
		out["nextQuestionId"] = nil
	case p.NextQuestionID != nil:
		out["nextQuestionId"] = *p.NextQuestionID
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (p *RecordPatch) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = RecordPatch{}
	if v, ok := raw["text"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return err
		}
		p.Text = &s
	}
	if v, ok := raw["type"]; ok {
		var t RecordType
		if err := json.Unmarshal(v, &t); err != nil {
			return err
		}
		p.Type = &t
	}
	if v, ok := raw["position"]; ok {
		var pos Position
		if err := json.Unmarshal(v, &pos); err != nil {
			return err
		}
		p.Position = &pos
	}
	if v, ok := raw["options"]; ok {
		var opts []RecordOption
		if err := json.Unmarshal(v, &opts); err != nil {
			return err
		}
		if len(opts) == 0 {
			p.ClearOptions = true
		} else {
			p.Options = opts
		}
	}
	if v, ok := raw["dataCollection"]; ok {
		var dc DataCollection
		if err := json.Unmarshal(v, &dc); err != nil {
			return err
		}
		p.DataCollection = &dc
	}
	if v, ok := raw["messageSettings"]; ok {
		var ms MessageSettings
		if err := json.Unmarshal(v, &ms); err != nil {
			return err
		}
		p.MessageSettings = &ms
	}
	if v, ok := raw["nextQuestionId"]; ok {
		var ref Ref
		if err := json.Unmarshal(v, &ref); err != nil {
			return err
		}
		if ref == "" {
			p.ClearNext = true
		} else {
			s := string(ref)
			p.NextQuestionID = &s
		}
	}
	return nil
}

// Apply merges the patch into rec and returns the result.
func (p RecordPatch) Apply(rec Record) Record {
	out := rec.Clone()
	if p.Text != nil {
		out.Text = *p.Text
	}
	if p.Type != nil {
		out.Type = *p.Type
	}
	if p.Position != nil {
		pos := *p.Position
		out.Position = &pos
	}
	switch {
	case p.ClearOptions:
		out.Options = nil
	case p.Options != nil:
		out.Options = append([]RecordOption(nil), p.Options...)
	}
	if p.DataCollection != nil {
		dc := *p.DataCollection
		out.DataCollection = &dc
	}
	if p.MessageSettings != nil {
		ms := *p.MessageSettings
		out.MessageSettings = &ms
	}
	switch {
	case p.ClearNext:
		out.NextQuestionID = ""
	case p.NextQuestionID != nil:
		out.NextQuestionID = Ref(*p.NextQuestionID)
	}
	return out
}

// Conversation is a recorded end-user session, listed read-only.
type Conversation struct {
	ID        string    `json:"_id"`
	UserID    string    `json:"userId"`
	Status    string    `json:"status"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"createdAt"`
}

// Answer is one response captured during a conversation.
type Answer struct {
	QuestionID Ref    `json:"questionId"`
	Value      string `json:"answer"`
}
