package observe

import "strings"

// OpMeta names a wrapped operation in logs, spans and metrics.
type OpMeta struct {
	ID        string // overrides the derived namespace.name identifier
	Namespace string
	Name      string // required
	Version   string
	Tags      []string
}

func (m OpMeta) qualified() string {
	if m.Namespace == "" {
		return m.Name
	}
	return m.Namespace + "." + m.Name
}

// SpanName returns op.exec.<namespace>.<name>, or op.exec.<name> without a
// namespace. ID does not affect it.
func (m OpMeta) SpanName() string {
	var b strings.Builder
	b.Grow(len("op.exec.") + len(m.Namespace) + 1 + len(m.Name))
	b.WriteString("op.exec.")
	b.WriteString(m.qualified())
	return b.String()
}

// OpID returns ID when set and namespace.name otherwise.
func (m OpMeta) OpID() string {
	if m.ID != "" {
		return m.ID
	}
	return m.qualified()
}

// Validate reports ErrMissingOpName when Name is empty.
func (m OpMeta) Validate() error {
	if m.Name == "" {
		return ErrMissingOpName
	}
	return nil
}
