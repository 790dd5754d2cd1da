// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tomtom215/takbridge/internal/validation"
)

// List is the envelope TAK Server wraps most collection responses in.
type List[T any] struct {
	Version string `json:"version"`
	Type    string `json:"type"`
	Data    []T    `json:"data"`
	NodeID  string `json:"nodeId,omitempty"`
}

// Envelope wraps a single object.
type Envelope[T any] struct {
	Version string `json:"version"`
	Type    string `json:"type"`
	Data    T      `json:"data"`
	NodeID  string `json:"nodeId,omitempty"`
}

// MissionOptions carries the per-Mission token attached as the
// MissionAuthorization header.
type MissionOptions struct {
	Token string
}

func (o *MissionOptions) token() string {
	if o == nil {
		return ""
	}
	return o.Token
}

// Mission is a Server-side data sync container.
type Mission struct {
	Name              string           `json:"name"`
	GUID              string           `json:"guid,omitempty"`
	Description       string           `json:"description,omitempty"`
	ChatRoom          string           `json:"chatRoom,omitempty"`
	BaseLayer         string           `json:"baseLayer,omitempty"`
	BBox              string           `json:"bbox,omitempty"`
	Path              string           `json:"path,omitempty"`
	Classification    string           `json:"classification,omitempty"`
	Tool              string           `json:"tool,omitempty"`
	Keywords          []string         `json:"keywords,omitempty"`
	CreatorUID        string           `json:"creatorUid,omitempty"`
	CreateTime        string           `json:"createTime,omitempty"`
	LastEdited        string           `json:"lastEdited,omitempty"`
	Groups            []string         `json:"groups,omitempty"`
	ExternalData      []any            `json:"externalData,omitempty"`
	Feeds             []any            `json:"feeds,omitempty"`
	MapLayers         []any            `json:"mapLayers,omitempty"`
	DefaultRole       *MissionRole     `json:"defaultRole,omitempty"`
	OwnerRole         *MissionRole     `json:"ownerRole,omitempty"`
	InviteOnly        bool             `json:"inviteOnly"`
	Expiration        int64            `json:"expiration,omitempty"`
	PasswordProtected bool             `json:"passwordProtected"`
	Token             string           `json:"token,omitempty"`
	UIDs              []MissionUID     `json:"uids,omitempty"`
	Contents          []MissionContent `json:"contents,omitempty"`
	Logs              []MissionLog     `json:"logs,omitempty"`
}

// MissionRole is a subscriber role with its permission set.
type MissionRole struct {
	Type        string   `json:"type"`
	Permissions []string `json:"permissions,omitempty"`
}

// Mission role names understood by the Server.
const (
	RoleOwner      = "MISSION_OWNER"
	RoleSubscriber = "MISSION_SUBSCRIBER"
	RoleReadOnly   = "MISSION_READONLY_SUBSCRIBER"
)

// MissionSubscriber is returned by Subscribe and SubscriptionRoles.
type MissionSubscriber struct {
	Token     string       `json:"token,omitempty"`
	ClientUID string       `json:"clientUid"`
	Username  string       `json:"username,omitempty"`
	CreatedAt string       `json:"createTime,omitempty"`
	Role      *MissionRole `json:"role,omitempty"`
}

// MissionUID is a CoT UID attached to a Mission.
type MissionUID struct {
	Data       string   `json:"data"`
	Timestamp  string   `json:"timestamp,omitempty"`
	CreatorUID string   `json:"creatorUid,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
	Details    *struct {
		Type     string `json:"type"`
		Callsign string `json:"callsign"`
		Location *struct {
			Lat float64 `json:"lat"`
			Lon float64 `json:"lon"`
		} `json:"location,omitempty"`
	} `json:"details,omitempty"`
}

// MissionContent is a file attached to a Mission.
type MissionContent struct {
	Timestamp  string `json:"timestamp,omitempty"`
	CreatorUID string `json:"creatorUid,omitempty"`
	Data       struct {
		Name           string   `json:"name"`
		Hash           string   `json:"hash"`
		UID            string   `json:"uid,omitempty"`
		MimeType       string   `json:"mimeType,omitempty"`
		Size           int64    `json:"size,omitempty"`
		SubmissionTime string   `json:"submissionTime,omitempty"`
		Submitter      string   `json:"submitter,omitempty"`
		CreatorUID     string   `json:"creatorUid,omitempty"`
		Keywords       []string `json:"keywords,omitempty"`
	} `json:"data"`
}

// MissionChange is one entry of a Mission's change feed.
type MissionChange struct {
	Type        string          `json:"type"`
	MissionName string          `json:"missionName"`
	Timestamp   string          `json:"timestamp"`
	CreatorUID  string          `json:"creatorUid,omitempty"`
	ServerTime  string          `json:"serverTime,omitempty"`
	ContentUID  string          `json:"contentUid,omitempty"`
	Details     *MissionUID     `json:"details,omitempty"`
	Content     *MissionContent `json:"contentResource,omitempty"`
}

// MissionLog is a log entry attached to one or more Missions.
type MissionLog struct {
	ID            string   `json:"id,omitempty"`
	Content       string   `json:"content"`
	CreatorUID    string   `json:"creatorUid"`
	EntryUID      string   `json:"entryUid,omitempty"`
	MissionNames  []string `json:"missionNames"`
	ServerTime    string   `json:"servertime,omitempty"`
	DTG           string   `json:"dtg,omitempty"`
	Created       string   `json:"created,omitempty"`
	ContentHashes []string `json:"contentHashes,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
}

// Contact is a client currently subscribed to a Mission.
type Contact struct {
	UID            string `json:"uid"`
	Callsign       string `json:"callsign"`
	Team           string `json:"team,omitempty"`
	Role           string `json:"role,omitempty"`
	TakVersion     string `json:"takv,omitempty"`
	LastEventTime  string `json:"lastEventTime,omitempty"`
	LastReportTime string `json:"lastReportTime,omitempty"`
}

// missionPath addresses a Mission by GUID when the name looks like one and
// by trimmed, escaped name otherwise. suffix is appended verbatim.
func missionPath(name, suffix string) string {
	name = strings.TrimSpace(name)
	if IsGUID(name) {
		return "/Marti/api/missions/guid/" + url.PathEscape(StripBraces(name)) + suffix
	}
	return "/Marti/api/missions/" + url.PathEscape(name) + suffix
}

func missionFetch(opts *MissionOptions, query url.Values) FetchOptions {
	return FetchOptions{Query: query, MissionToken: opts.token()}
}

func (c *Client) missionJSON(ctx context.Context, method, name, suffix string, fo FetchOptions, out any) error {
	return c.fetchJSON(ctx, method, missionPath(name, suffix), fo, out)
}

func validateInput(in any) error {
	if err := validation.ValidateStruct(in); err != nil {
		return fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	return nil
}
