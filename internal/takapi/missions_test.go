// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package takapi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
)

const missionListBody = `{
	"version": "3",
	"type": "Mission",
	"data": [{
		"name": "Wildfire-Ops",
		"guid": "0f8fad5b-d9cb-469f-a165-70867728950e",
		"description": "Fire line",
		"groups": ["Blue"],
		"token": "owner-token",
		"defaultRole": {"type": "MISSION_SUBSCRIBER", "permissions": ["MISSION_READ"]}
	}]
}`

func TestMissions_List(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/Marti/api/missions")
		checkStringEqual(t, "tool", r.URL.Query().Get("tool"), "public")
		checkStringEqual(t, "passwordProtected", r.URL.Query().Get("passwordProtected"), "true")
		writeJSON(w, http.StatusOK, missionListBody)
	}))

	missions, err := c.Missions.List(context.Background(), ListMissionsInput{PasswordProtected: true, Tool: "public"})
	checkNoError(t, err)
	checkSliceLen(t, "missions", len(missions), 1)
	checkStringEqual(t, "name", missions[0].Name, "Wildfire-Ops")
	checkStringEqual(t, "default role", missions[0].DefaultRole.Type, RoleSubscriber)
}

func TestMissions_GetAddressing(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantPath string
	}{
		{"by name", "Wildfire-Ops", "/Marti/api/missions/Wildfire-Ops"},
		{"by guid", "0f8fad5b-d9cb-469f-a165-70867728950e", "/Marti/api/missions/guid/0f8fad5b-d9cb-469f-a165-70867728950e"},
		{"by braced guid", "{0f8fad5b-d9cb-469f-a165-70867728950e}", "/Marti/api/missions/guid/0f8fad5b-d9cb-469f-a165-70867728950e"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				checkStringEqual(t, "path", r.URL.Path, tt.wantPath)
				checkStringEqual(t, "logs", r.URL.Query().Get("logs"), "true")
				checkStringEqual(t, "mission auth", r.Header.Get("MissionAuthorization"), "Bearer tok")
				writeJSON(w, http.StatusOK, missionListBody)
			}))
			m, err := c.Missions.Get(context.Background(), tt.in, &GetMissionInput{Logs: true}, &MissionOptions{Token: "tok"})
			checkNoError(t, err)
			checkStringEqual(t, "guid", m.GUID, "0f8fad5b-d9cb-469f-a165-70867728950e")
		})
	}
}

func TestMissions_GetEmptyIsNotFound(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"version":"3","type":"Mission","data":[]}`)
	}))
	_, err := c.Missions.Get(context.Background(), "Ghost", nil, nil)
	checkErrorIs(t, err, ErrMissionNotFound)
	checkErrorIs(t, err, ErrNotFound)

	_, err = c.Missions.GetGUID(context.Background(), "0f8fad5b-d9cb-469f-a165-70867728950e", nil, nil)
	checkErrorIs(t, err, ErrMissionNotFound)
}

func TestMissions_Create(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "method", r.Method, http.MethodPut)
		checkStringEqual(t, "path", r.URL.Path, "/Marti/api/missions/Wildfire-Ops")
		q := r.URL.Query()
		checkStringEqual(t, "groups", strings.Join(q["group"], ","), "Blue,Red")
		checkStringEqual(t, "creatorUid", q.Get("creatorUid"), "connection-1-data-7")
		checkStringEqual(t, "description", q.Get("description"), "Fire line")
		checkStringEqual(t, "defaultRole", q.Get("defaultRole"), RoleSubscriber)
		checkStringEqual(t, "password omitted", q.Get("password"), "")
		writeJSON(w, http.StatusCreated, missionListBody)
	}))

	m, err := c.Missions.Create(context.Background(), "Wildfire-Ops", CreateMissionInput{
		Group:       []string{"Blue", "Red"},
		CreatorUID:  "connection-1-data-7",
		Description: "Fire line",
		DefaultRole: RoleSubscriber,
	}, nil)
	checkNoError(t, err)
	checkStringEqual(t, "token", m.Token, "owner-token")
}

func TestMissions_CreateRejects(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	tests := []struct {
		name string
		in   string
		body CreateMissionInput
	}{
		{"guid name", "0f8fad5b-d9cb-469f-a165-70867728950e", CreateMissionInput{Group: []string{"Blue"}, CreatorUID: "c"}},
		{"padded guid name", " {0f8fad5b-d9cb-469f-a165-70867728950e} ", CreateMissionInput{Group: []string{"Blue"}, CreatorUID: "c"}},
		{"blank name", "  ", CreateMissionInput{Group: []string{"Blue"}, CreatorUID: "c"}},
		{"no groups", "Ops", CreateMissionInput{CreatorUID: "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Missions.Create(context.Background(), tt.in, tt.body, nil)
			checkErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestMissions_DeleteAndSubscriptions(t *testing.T) {
	var (
		mu   sync.Mutex
		seen []string
	)
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Method+" "+r.URL.Path+"?"+r.URL.RawQuery)
		mu.Unlock()
		switch {
		case r.Method == http.MethodPut && strings.HasSuffix(r.URL.Path, "/subscription"):
			writeJSON(w, http.StatusCreated, `{"version":"3","type":"MissionSubscription","data":{"token":"sub-token","clientUid":"ANDROID-1"}}`)
		case strings.HasSuffix(r.URL.Path, "/subscriptions"):
			writeJSON(w, http.StatusOK, `{"version":"3","type":"java.lang.String","data":["ANDROID-1","ANDROID-2"]}`)
		case strings.HasSuffix(r.URL.Path, "/role"):
			writeJSON(w, http.StatusOK, `{"version":"3","type":"MissionRole","data":{"type":"MISSION_OWNER","permissions":["MISSION_MANAGE_FEEDS"]}}`)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	ctx := context.Background()

	sub, err := c.Missions.Subscribe(ctx, "Ops", SubscribeInput{UID: "ANDROID-1"}, nil)
	checkNoError(t, err)
	checkStringEqual(t, "subscription token", sub.Token, "sub-token")

	uids, err := c.Missions.Subscriptions(ctx, "Ops", nil)
	checkNoError(t, err)
	checkSliceLen(t, "subscriptions", len(uids), 2)

	role, err := c.Missions.Role(ctx, "Ops", &MissionOptions{Token: "sub-token"})
	checkNoError(t, err)
	checkStringEqual(t, "role", role.Type, RoleOwner)

	checkNoError(t, c.Missions.Unsubscribe(ctx, "Ops", UnsubscribeInput{UID: "ANDROID-1"}, nil))
	checkNoError(t, c.Missions.Delete(ctx, "Ops", DeleteMissionInput{CreatorUID: "me", DeepDelete: true}, nil))

	mu.Lock()
	defer mu.Unlock()
	want := []string{
		"PUT /Marti/api/missions/Ops/subscription?uid=ANDROID-1",
		"GET /Marti/api/missions/Ops/subscriptions?",
		"GET /Marti/api/missions/Ops/role?",
		"DELETE /Marti/api/missions/Ops/subscription?uid=ANDROID-1",
		"DELETE /Marti/api/missions/Ops?creatorUid=me&deepDelete=true",
	}
	checkSliceLen(t, "requests", len(seen), len(want))
	for i := range want {
		checkStringEqual(t, "request", seen[i], want[i])
	}
}

func TestMissions_SetRoleNeedsTarget(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "role", r.URL.Query().Get("role"), RoleReadOnly)
		checkStringEqual(t, "clientUid", r.URL.Query().Get("clientUid"), "ANDROID-1")
		w.WriteHeader(http.StatusOK)
	}))
	err := c.Missions.SetRole(context.Background(), "Ops", SetRoleInput{Role: RoleReadOnly}, nil)
	checkErrorIs(t, err, ErrConfiguration)

	checkNoError(t, c.Missions.SetRole(context.Background(), "Ops", SetRoleInput{ClientUID: "ANDROID-1", Role: RoleReadOnly}, nil))
}

func TestMissions_Contents(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/Marti/api/missions/Ops/contents")
		switch r.Method {
		case http.MethodPut:
			data, _ := io.ReadAll(r.Body)
			checkStringEqual(t, "body", string(data), `{"uids":["ANDROID-1"]}`)
		case http.MethodDelete:
			checkStringEqual(t, "uid", r.URL.Query().Get("uid"), "ANDROID-1")
		}
		writeJSON(w, http.StatusOK, missionListBody)
	}))
	ctx := context.Background()

	_, err := c.Missions.AttachContents(ctx, "Ops", AttachContentsInput{UIDs: []string{"ANDROID-1"}}, nil)
	checkNoError(t, err)
	_, err = c.Missions.DetachContents(ctx, "Ops", DetachContentsInput{UID: "ANDROID-1"}, nil)
	checkNoError(t, err)
	_, err = c.Missions.DetachContents(ctx, "Ops", DetachContentsInput{}, nil)
	checkErrorIs(t, err, ErrConfiguration)
}

func TestMissions_ChangesAndContacts(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/changes"):
			checkStringEqual(t, "squashed", r.URL.Query().Get("squashed"), "true")
			writeJSON(w, http.StatusOK, `{"version":"3","type":"MissionChange","data":[{"type":"ADD_CONTENT","missionName":"Ops","timestamp":"2026-01-01T00:00:00Z"}]}`)
		case strings.HasSuffix(r.URL.Path, "/contacts"):
			writeJSON(w, http.StatusOK, `[{"uid":"ANDROID-1","callsign":"ALPHA"}]`)
		}
	}))
	ctx := context.Background()

	changes, err := c.Missions.Changes(ctx, "Ops", &ChangesInput{Squashed: true}, nil)
	checkNoError(t, err)
	checkSliceLen(t, "changes", len(changes), 1)
	checkStringEqual(t, "change type", changes[0].Type, "ADD_CONTENT")

	contacts, err := c.Missions.Contacts(ctx, "Ops", nil)
	checkNoError(t, err)
	checkSliceLen(t, "contacts", len(contacts), 1)
	checkStringEqual(t, "callsign", contacts[0].Callsign, "ALPHA")
}

func TestMissions_Rename(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		checkStringEqual(t, "path", r.URL.Path, "/Marti/api/missions/Ops/name")
		checkStringEqual(t, "newName", r.URL.Query().Get("newName"), "Wildfire-Ops")
		writeJSON(w, http.StatusOK, missionListBody)
	}))
	m, err := c.Missions.Rename(context.Background(), "Ops", " Wildfire-Ops ", nil)
	checkNoError(t, err)
	checkStringEqual(t, "name", m.Name, "Wildfire-Ops")

	_, err = c.Missions.Rename(context.Background(), "Ops", " 0f8fad5b-d9cb-469f-a165-70867728950e ", nil)
	checkErrorIs(t, err, ErrConfiguration)
}

func TestMissionLogs(t *testing.T) {
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == logEntriesPath:
			data, _ := io.ReadAll(r.Body)
			checkTrue(t, "mission name defaulted", strings.Contains(string(data), `"missionNames":["Ops"]`))
			writeJSON(w, http.StatusCreated, `{"version":"3","type":"LogEntry","data":{"id":"log-1","content":"hello","creatorUid":"me","missionNames":["Ops"]}}`)
		case r.Method == http.MethodDelete:
			checkStringEqual(t, "path", r.URL.Path, logEntriesPath+"/log-1")
			w.WriteHeader(http.StatusOK)
		case r.URL.Path == "/Marti/api/missions/Ops":
			checkStringEqual(t, "logs", r.URL.Query().Get("logs"), "true")
			writeJSON(w, http.StatusOK, `{"version":"3","type":"Mission","data":[{"name":"Ops","logs":[{"id":"log-1","content":"hello","creatorUid":"me","missionNames":["Ops"]}]}]}`)
		}
	}))
	ctx := context.Background()

	entry, err := c.Logs.Create(ctx, "Ops", CreateLogInput{Content: "hello", CreatorUID: "me"}, nil)
	checkNoError(t, err)
	checkStringEqual(t, "id", entry.ID, "log-1")

	logs, err := c.Logs.List(ctx, "Ops", nil)
	checkNoError(t, err)
	checkSliceLen(t, "logs", len(logs), 1)

	checkNoError(t, c.Logs.Delete(ctx, "log-1", nil))

	_, err = c.Logs.Create(ctx, "Ops", CreateLogInput{CreatorUID: "me"}, nil)
	checkErrorIs(t, err, ErrConfiguration)
}

func TestGroups(t *testing.T) {
	var (
		mu   sync.Mutex
		body string
	)
	c, _ := newTokenClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/Marti/api/groups/all":
			checkStringEqual(t, "useCache", r.URL.Query().Get("useCache"), "true")
			writeJSON(w, http.StatusOK, `{"version":"3","type":"Group","data":[{"name":"Blue","direction":"IN","active":false},{"name":"Red","direction":"OUT","active":true}]}`)
		case "/Marti/api/groups/active":
			data, _ := io.ReadAll(r.Body)
			mu.Lock()
			body = string(data)
			mu.Unlock()
			w.WriteHeader(http.StatusOK)
		}
	}))
	ctx := context.Background()

	groups, err := c.Groups.List(ctx, true)
	checkNoError(t, err)
	checkSliceLen(t, "groups", len(groups), 2)
	checkStringEqual(t, "names", strings.Join(Names(groups), ","), "Blue,Red")

	groups[0].Active = true
	checkNoError(t, c.Groups.UpdateActive(ctx, groups))
	mu.Lock()
	defer mu.Unlock()
	checkTrue(t, "bulk body carries both groups", strings.Count(body, `"active":true`) == 2)
}
