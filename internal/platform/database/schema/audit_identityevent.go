package schema

// AuditIdentityEventTable represents the 'audit.identityevent' table
type AuditIdentityEventTable struct {
	Table     string
	ID        string
	ActorID   string
	Action    string
	SubjectID string
	Detail    string
	IPAddress string
	CreatedAt string
}

// AuditIdentityEvent is the schema definition for audit.identityevent
var AuditIdentityEvent = AuditIdentityEventTable{
	Table:     "audit.identityevent",
	ID:        "id",
	ActorID:   "actorid",
	Action:    "action",
	SubjectID: "subjectid",
	Detail:    "detail",
	IPAddress: "ipaddress",
	CreatedAt: "createdat",
}

func (t AuditIdentityEventTable) Columns() []string {
	return []string{t.ID, t.ActorID, t.Action, t.SubjectID, t.Detail, t.IPAddress, t.CreatedAt}
}
