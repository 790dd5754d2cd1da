// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Missions covers the Mission-scoped management endpoints. Every method
// that takes a name routes GUID-shaped names to the guid/ endpoint.
type Missions struct {
	c *Client
}

// ListMissionsInput filters List.
type ListMissionsInput struct {
	PasswordProtected bool
	DefaultRole       bool
	Tool              string
}

// GetMissionInput selects optional sections of a Mission.
type GetMissionInput struct {
	Changes bool
	Logs    bool
	Secago  int
	Start   string
	End     string
}

// CreateMissionInput describes a new Mission. Group must not be empty.
type CreateMissionInput struct {
	Group           []string `validate:"required,min=1"`
	CreatorUID      string   `validate:"required"`
	Description     string
	ChatRoom        string
	BaseLayer       string
	BBox            string
	BoundingPolygon []string
	Path            string
	Classification  string
	Tool            string
	Keywords        []string
	Password        string
	DefaultRole     string
	Expiration      int64
	InviteOnly      bool
	AllowDupe       bool
}

// DeleteMissionInput controls Delete.
type DeleteMissionInput struct {
	CreatorUID string
	DeepDelete bool
}

// SubscribeInput identifies the subscribing client.
type SubscribeInput struct {
	UID      string `validate:"required"`
	Password string
	Secago   int
	Start    string
	End      string
}

// UnsubscribeInput identifies the client to drop.
type UnsubscribeInput struct {
	UID            string `validate:"required"`
	DisconnectOnly bool
}

// SetRoleInput assigns a role to a client or user.
type SetRoleInput struct {
	ClientUID string
	Username  string
	Role      string `validate:"required"`
}

// ChangesInput bounds the change feed.
type ChangesInput struct {
	Secago   int
	Start    string
	End      string
	Squashed bool
}

// AttachContentsInput references existing content by hash or CoT UID.
type AttachContentsInput struct {
	Hashes []string `json:"hashes,omitempty"`
	UIDs   []string `json:"uids,omitempty"`
}

// DetachContentsInput removes one piece of content.
type DetachContentsInput struct {
	Hash       string
	UID        string
	CreatorUID string
}

type query url.Values

func (q query) str(key, v string) query {
	if v != "" {
		url.Values(q).Set(key, v)
	}
	return q
}

func (q query) strs(key string, vs []string) query {
	for _, v := range vs {
		url.Values(q).Add(key, v)
	}
	return q
}

func (q query) flag(key string, v bool) query {
	if v {
		url.Values(q).Set(key, "true")
	}
	return q
}

func (q query) num(key string, v int64) query {
	if v != 0 {
		url.Values(q).Set(key, strconv.FormatInt(v, 10))
	}
	return q
}

// List returns every Mission visible to the caller.
func (m *Missions) List(ctx context.Context, in ListMissionsInput) ([]Mission, error) {
	q := query{}.
		flag("passwordProtected", in.PasswordProtected).
		flag("defaultRole", in.DefaultRole).
		str("tool", in.Tool)

	var list List[Mission]
	if err := m.c.fetchJSON(ctx, http.MethodGet, "/Marti/api/missions", FetchOptions{Query: url.Values(q)}, &list); err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	return list.Data, nil
}

// Get fetches one Mission. An empty result is ErrMissionNotFound.
func (m *Missions) Get(ctx context.Context, name string, in *GetMissionInput, opts *MissionOptions) (*Mission, error) {
	return m.get(ctx, missionPath(name, ""), in, opts)
}

// GetGUID fetches a Mission by GUID regardless of its shape.
func (m *Missions) GetGUID(ctx context.Context, guid string, in *GetMissionInput, opts *MissionOptions) (*Mission, error) {
	path := "/Marti/api/missions/guid/" + url.PathEscape(StripBraces(strings.TrimSpace(guid)))
	return m.get(ctx, path, in, opts)
}

func (m *Missions) get(ctx context.Context, path string, in *GetMissionInput, opts *MissionOptions) (*Mission, error) {
	q := query{}
	if in != nil {
		q = q.flag("changes", in.Changes).
			flag("logs", in.Logs).
			num("secago", int64(in.Secago)).
			str("start", in.Start).
			str("end", in.End)
	}

	var list List[Mission]
	if err := m.c.fetchJSON(ctx, http.MethodGet, path, missionFetch(opts, url.Values(q)), &list); err != nil {
		return nil, err
	}
	if len(list.Data) == 0 {
		return nil, ErrMissionNotFound
	}
	return &list.Data[0], nil
}

// Create makes a Mission. The returned Mission carries the owner token.
// GUID-shaped names are rejected since the Server would address them as
// GUIDs afterwards.
func (m *Missions) Create(ctx context.Context, name string, in CreateMissionInput, opts *MissionOptions) (*Mission, error) {
	if IsGUID(strings.TrimSpace(name)) {
		return nil, fmt.Errorf("%w: mission name %q must not be a GUID", ErrConfiguration, name)
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: mission name is required", ErrConfiguration)
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	q := query{}.
		strs("group", in.Group).
		str("creatorUid", in.CreatorUID).
		str("description", in.Description).
		str("chatRoom", in.ChatRoom).
		str("baseLayer", in.BaseLayer).
		str("bbox", in.BBox).
		strs("boundingPolygon", in.BoundingPolygon).
		str("path", in.Path).
		str("classification", in.Classification).
		str("tool", in.Tool).
		strs("keywords", in.Keywords).
		str("password", in.Password).
		str("defaultRole", in.DefaultRole).
		num("expiration", in.Expiration).
		flag("inviteOnly", in.InviteOnly).
		flag("allowDupe", in.AllowDupe)

	var list List[Mission]
	if err := m.c.missionJSON(ctx, http.MethodPut, name, "", missionFetch(opts, url.Values(q)), &list); err != nil {
		return nil, fmt.Errorf("create mission %q: %w", name, err)
	}
	if len(list.Data) == 0 {
		return nil, fmt.Errorf("create mission %q: %w", name, ErrMissionNotFound)
	}
	return &list.Data[0], nil
}

// Delete removes a Mission.
func (m *Missions) Delete(ctx context.Context, name string, in DeleteMissionInput, opts *MissionOptions) error {
	q := query{}.
		str("creatorUid", in.CreatorUID).
		flag("deepDelete", in.DeepDelete)
	if err := m.c.missionJSON(ctx, http.MethodDelete, name, "", missionFetch(opts, url.Values(q)), nil); err != nil {
		return fmt.Errorf("delete mission %q: %w", name, err)
	}
	return nil
}

// Rename changes a Mission's name.
func (m *Missions) Rename(ctx context.Context, name, newName string, opts *MissionOptions) (*Mission, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" || IsGUID(newName) {
		return nil, fmt.Errorf("%w: invalid mission name %q", ErrConfiguration, newName)
	}
	q := query{}.str("newName", newName)

	var list List[Mission]
	if err := m.c.missionJSON(ctx, http.MethodPut, name, "/name", missionFetch(opts, url.Values(q)), &list); err != nil {
		return nil, fmt.Errorf("rename mission %q: %w", name, err)
	}
	if len(list.Data) == 0 {
		return nil, ErrMissionNotFound
	}
	return &list.Data[0], nil
}

// Subscribe adds a client to a Mission and returns its subscription,
// including the Mission token issued for it.
func (m *Missions) Subscribe(ctx context.Context, name string, in SubscribeInput, opts *MissionOptions) (*MissionSubscriber, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	q := query{}.
		str("uid", in.UID).
		str("password", in.Password).
		num("secago", int64(in.Secago)).
		str("start", in.Start).
		str("end", in.End)

	var env Envelope[MissionSubscriber]
	if err := m.c.missionJSON(ctx, http.MethodPut, name, "/subscription", missionFetch(opts, url.Values(q)), &env); err != nil {
		return nil, fmt.Errorf("subscribe %s to mission %q: %w", in.UID, name, err)
	}
	return &env.Data, nil
}

// Unsubscribe removes a client from a Mission.
func (m *Missions) Unsubscribe(ctx context.Context, name string, in UnsubscribeInput, opts *MissionOptions) error {
	if err := validateInput(in); err != nil {
		return err
	}
	q := query{}.
		str("uid", in.UID).
		flag("disconnectOnly", in.DisconnectOnly)
	if err := m.c.missionJSON(ctx, http.MethodDelete, name, "/subscription", missionFetch(opts, url.Values(q)), nil); err != nil {
		return fmt.Errorf("unsubscribe %s from mission %q: %w", in.UID, name, err)
	}
	return nil
}

// Subscriptions lists the client UIDs subscribed to a Mission.
func (m *Missions) Subscriptions(ctx context.Context, name string, opts *MissionOptions) ([]string, error) {
	var list List[string]
	if err := m.c.missionJSON(ctx, http.MethodGet, name, "/subscriptions", missionFetch(opts, nil), &list); err != nil {
		return nil, fmt.Errorf("mission %q subscriptions: %w", name, err)
	}
	return list.Data, nil
}

// SubscriptionRoles lists subscribers with their roles.
func (m *Missions) SubscriptionRoles(ctx context.Context, name string, opts *MissionOptions) ([]MissionSubscriber, error) {
	var list List[MissionSubscriber]
	if err := m.c.missionJSON(ctx, http.MethodGet, name, "/subscriptions/roles", missionFetch(opts, nil), &list); err != nil {
		return nil, fmt.Errorf("mission %q subscription roles: %w", name, err)
	}
	return list.Data, nil
}

// Role returns the caller's role in a Mission.
func (m *Missions) Role(ctx context.Context, name string, opts *MissionOptions) (*MissionRole, error) {
	var env Envelope[MissionRole]
	if err := m.c.missionJSON(ctx, http.MethodGet, name, "/role", missionFetch(opts, nil), &env); err != nil {
		return nil, fmt.Errorf("mission %q role: %w", name, err)
	}
	return &env.Data, nil
}

// SetRole assigns a role to a subscriber.
func (m *Missions) SetRole(ctx context.Context, name string, in SetRoleInput, opts *MissionOptions) error {
	if err := validateInput(in); err != nil {
		return err
	}
	if in.ClientUID == "" && in.Username == "" {
		return fmt.Errorf("%w: set role needs a client UID or a username", ErrConfiguration)
	}
	q := query{}.
		str("clientUid", in.ClientUID).
		str("username", in.Username).
		str("role", in.Role)
	if err := m.c.missionJSON(ctx, http.MethodPut, name, "/role", missionFetch(opts, url.Values(q)), nil); err != nil {
		return fmt.Errorf("set mission %q role: %w", name, err)
	}
	return nil
}

// Changes returns the Mission change feed.
func (m *Missions) Changes(ctx context.Context, name string, in *ChangesInput, opts *MissionOptions) ([]MissionChange, error) {
	q := query{}
	if in != nil {
		q = q.num("secago", int64(in.Secago)).
			str("start", in.Start).
			str("end", in.End).
			flag("squashed", in.Squashed)
	}
	var list List[MissionChange]
	if err := m.c.missionJSON(ctx, http.MethodGet, name, "/changes", missionFetch(opts, url.Values(q)), &list); err != nil {
		return nil, fmt.Errorf("mission %q changes: %w", name, err)
	}
	return list.Data, nil
}

// Contacts lists clients currently connected to a Mission.
func (m *Missions) Contacts(ctx context.Context, name string, opts *MissionOptions) ([]Contact, error) {
	var contacts []Contact
	if err := m.c.missionJSON(ctx, http.MethodGet, name, "/contacts", missionFetch(opts, nil), &contacts); err != nil {
		return nil, fmt.Errorf("mission %q contacts: %w", name, err)
	}
	return contacts, nil
}

// AttachContents adds existing content hashes or CoT UIDs to a Mission.
func (m *Missions) AttachContents(ctx context.Context, name string, in AttachContentsInput, opts *MissionOptions) (*Mission, error) {
	fo := missionFetch(opts, nil)
	fo.Body = in

	var list List[Mission]
	if err := m.c.missionJSON(ctx, http.MethodPut, name, "/contents", fo, &list); err != nil {
		return nil, fmt.Errorf("attach contents to mission %q: %w", name, err)
	}
	if len(list.Data) == 0 {
		return nil, ErrMissionNotFound
	}
	return &list.Data[0], nil
}

// DetachContents removes one hash or UID from a Mission.
func (m *Missions) DetachContents(ctx context.Context, name string, in DetachContentsInput, opts *MissionOptions) (*Mission, error) {
	if in.Hash == "" && in.UID == "" {
		return nil, fmt.Errorf("%w: detach needs a hash or a uid", ErrConfiguration)
	}
	q := query{}.
		str("hash", in.Hash).
		str("uid", in.UID).
		str("creatorUid", in.CreatorUID)

	var list List[Mission]
	if err := m.c.missionJSON(ctx, http.MethodDelete, name, "/contents", missionFetch(opts, url.Values(q)), &list); err != nil {
		return nil, fmt.Errorf("detach contents from mission %q: %w", name, err)
	}
	if len(list.Data) == 0 {
		return nil, ErrMissionNotFound
	}
	return &list.Data[0], nil
}
