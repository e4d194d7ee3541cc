package cub

import "time"

// Model kinds as sent in the "object" field.
const (
	KindUser                = "user"
	KindOrganization        = "organization"
	KindMember              = "member"
	KindGroup               = "group"
	KindGroupMember         = "groupmember"
	KindLead                = "lead"
	KindCountry             = "country"
	KindState               = "state"
	KindMessage             = "message"
	KindSite                = "site"
	KindWebhookSubscription = "webhooksubscription"
)

func init() {
	DefaultRegistry.Register(KindUser, func(obj *Object) Model { return &User{Object: obj} })
	DefaultRegistry.Register(KindOrganization, func(obj *Object) Model { return &Organization{Object: obj} })
	DefaultRegistry.Register(KindMember, func(obj *Object) Model { return &Member{Object: obj} })
	DefaultRegistry.Register(KindGroup, func(obj *Object) Model { return &Group{Object: obj} })
	DefaultRegistry.Register(KindGroupMember, func(obj *Object) Model { return &GroupMember{Object: obj} })
	DefaultRegistry.Register(KindLead, func(obj *Object) Model { return &Lead{Object: obj} })
	DefaultRegistry.Register(KindCountry, func(obj *Object) Model { return &Country{Object: obj} })
	DefaultRegistry.Register(KindState, func(obj *Object) Model { return &State{Object: obj} })
	DefaultRegistry.Register(KindMessage, func(obj *Object) Model { return &Message{Object: obj} })
	DefaultRegistry.Register(KindSite, func(obj *Object) Model { return &Site{Object: obj} })
	DefaultRegistry.Register(KindWebhookSubscription, func(obj *Object) Model {
		return &WebhookSubscription{Object: obj}
	})
}

// Deletable is implemented by models carrying the soft-delete flag.
type Deletable interface {
	Model
	Deleted() bool
}

// deleted reads the soft-delete flag; a missing flag means not deleted.
func deleted(o *Object) bool {
	value, _ := o.Bool("deleted")

	return value
}

// User is a Cub account.
type User struct {
	*Object
}

func (u *User) Username() (string, bool)         { return u.String("username") }
func (u *User) OriginalUsername() (string, bool) { return u.String("original_username") }
func (u *User) Email() (string, bool)            { return u.String("email") }
func (u *User) FirstName() (string, bool)        { return u.String("first_name") }
func (u *User) MiddleName() (string, bool)       { return u.String("middle_name") }
func (u *User) LastName() (string, bool)         { return u.String("last_name") }
func (u *User) DateJoined() (time.Time, bool)    { return u.Time("date_joined") }
func (u *User) LastLogin() (time.Time, bool)     { return u.Time("last_login") }
func (u *User) Photo() (string, bool)            { return u.String("photo_small") }
func (u *User) Deleted() bool                    { return deleted(u.Object) }

// Token returns the session token returned by login.
func (u *User) Token() (string, bool) { return u.String("token") }

// APIKey returns the API key of the organization the user acts for.
func (u *User) APIKey() (string, bool) { return u.String("api_key") }

// Membership returns the user's organization memberships. Memberships are
// only objects when the request expanded them; otherwise the list is empty.
func (u *User) Membership() ([]*Member, bool) {
	return relatedOf[*Member](u.Object, "membership")
}

// Organization is a customer organization.
type Organization struct {
	*Object
}

func (o *Organization) Name() (string, bool)     { return o.String("name") }
func (o *Organization) APIKey() (string, bool)   { return o.String("api_key") }
func (o *Organization) Employees() (int64, bool) { return o.Int("employees") }
func (o *Organization) Website() (string, bool)  { return o.String("website") }
func (o *Organization) City() (string, bool)     { return o.String("city") }
func (o *Organization) Deleted() bool            { return deleted(o.Object) }

// Country returns the organization's country, expanded or as a reference.
func (o *Organization) Country() (Model, bool) { return o.Related("country") }

// State returns the organization's state, expanded or as a reference.
func (o *Organization) State() (Model, bool) { return o.Related("state") }

// Member links a user to an organization.
type Member struct {
	*Object
}

func (m *Member) APIKey() (string, bool)   { return m.String("api_key") }
func (m *Member) Position() (string, bool) { return m.String("position") }
func (m *Member) IsAdmin() (bool, bool)    { return m.Bool("is_admin") }
func (m *Member) IsActive() (bool, bool)   { return m.Bool("is_active") }
func (m *Member) Deleted() bool            { return deleted(m.Object) }

// User returns the member's user, expanded or as a reference.
func (m *Member) User() (Model, bool) { return m.Related("user") }

// Organization returns the member's organization when it was expanded.
func (m *Member) Organization() (*Organization, bool) {
	return relatedOne[*Organization](m.Object, "organization")
}

// Group is a named set of members within an organization.
type Group struct {
	*Object
}

func (g *Group) Name() (string, bool)        { return g.String("name") }
func (g *Group) Type() (string, bool)        { return g.String("type") }
func (g *Group) Description() (string, bool) { return g.String("description") }
func (g *Group) Deleted() bool               { return deleted(g.Object) }

// Organization returns the owning organization, expanded or as a reference.
func (g *Group) Organization() (Model, bool) { return g.Related("organization") }

// GroupMember links a member to a group.
type GroupMember struct {
	*Object
}

func (g *GroupMember) IsAdmin() (bool, bool) { return g.Bool("is_admin") }
func (g *GroupMember) Group() (Model, bool)  { return g.Related("group") }
func (g *GroupMember) Member() (Model, bool) { return g.Related("member") }
func (g *GroupMember) Deleted() bool         { return deleted(g.Object) }

// Lead is a sales lead captured by a site form.
type Lead struct {
	*Object
}

func (l *Lead) Email() (string, bool)      { return l.String("email") }
func (l *Lead) FirstName() (string, bool)  { return l.String("first_name") }
func (l *Lead) LastName() (string, bool)   { return l.String("last_name") }
func (l *Lead) FormType() (string, bool)   { return l.String("form_type") }
func (l *Lead) Created() (time.Time, bool) { return l.Time("created") }
func (l *Lead) Deleted() bool              { return deleted(l.Object) }

// Data returns the free-form form submission attached to the lead.
func (l *Lead) Data() (map[string]any, bool) {
	value, ok := l.Get("data")
	if !ok {
		return nil, false
	}

	data, ok := value.(map[string]any)

	return data, ok
}

// Country is a reference country.
type Country struct {
	*Object
}

func (c *Country) Name() (string, bool)  { return c.String("name") }
func (c *Country) Code() (string, bool)  { return c.String("code") }
func (c *Country) Code3() (string, bool) { return c.String("code3") }

// State is a country subdivision.
type State struct {
	*Object
}

func (s *State) Name() (string, bool)   { return s.String("name") }
func (s *State) Code() (string, bool)   { return s.String("code") }
func (s *State) Country() (Model, bool) { return s.Related("country") }

// Message is a notification delivered to a user.
type Message struct {
	*Object
}

func (m *Message) Subject() (string, bool)    { return m.String("subject") }
func (m *Message) Text() (string, bool)       { return m.String("text") }
func (m *Message) Sender() (Model, bool)      { return m.Related("sender") }
func (m *Message) Created() (time.Time, bool) { return m.Time("created") }
func (m *Message) Read() (bool, bool)         { return m.Bool("read") }
func (m *Message) Deleted() bool              { return deleted(m.Object) }

// Site is a web property attached to the service.
type Site struct {
	*Object
}

func (s *Site) Name() (string, bool)   { return s.String("name") }
func (s *Site) Domain() (string, bool) { return s.String("domain") }
func (s *Site) Deleted() bool          { return deleted(s.Object) }

// WebhookSubscription routes service events to a callback URL.
type WebhookSubscription struct {
	*Object
}

func (w *WebhookSubscription) URL() (string, bool) { return w.String("url") }
func (w *WebhookSubscription) Site() (Model, bool) { return w.Related("site") }
func (w *WebhookSubscription) Deleted() bool       { return deleted(w.Object) }

// Events returns the subscribed event names.
func (w *WebhookSubscription) Events() ([]string, bool) {
	value, ok := w.Get("events")
	if !ok {
		return nil, false
	}

	items, ok := value.([]any)
	if !ok {
		return nil, false
	}

	events := make([]string, 0, len(items))

	for _, item := range items {
		if event, ok := item.(string); ok {
			events = append(events, event)
		}
	}

	return events, true
}

func relatedOne[T Model](o *Object, name string) (T, bool) {
	value, ok := o.Get(name)
	if !ok {
		var zero T

		return zero, false
	}

	return As[T](value)
}

func relatedOf[T Model](o *Object, name string) ([]T, bool) {
	value, ok := o.Get(name)
	if !ok {
		return nil, false
	}

	return Slice[T](value)
}
