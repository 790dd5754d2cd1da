// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package datasync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/takbridge/internal/logging"
	"github.com/tomtom215/takbridge/internal/metrics"
	"github.com/tomtom215/takbridge/internal/takapi"
	"github.com/tomtom215/takbridge/internal/validation"
)

// DefaultMaxLayers bounds the local layers considered per Data Connection.
// A Data Connection currently carries one virtual layer.
const DefaultMaxLayers = 1

// Reconciler converges Missions toward Data Connection records.
type Reconciler struct {
	client    *takapi.Client
	store     Store
	maxLayers int
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithMaxLayers overrides DefaultMaxLayers.
func WithMaxLayers(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.maxLayers = n
		}
	}
}

// NewReconciler returns a Reconciler using client for every Server call.
func NewReconciler(client *takapi.Client, store Store, opts ...Option) *Reconciler {
	r := &Reconciler{client: client, store: store, maxLayers: DefaultMaxLayers}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync brings the Mission named by d into the state d describes and
// returns it, or nil when the Mission is (now) absent. d.MissionToken is
// updated when a Mission is created.
func (r *Reconciler) Sync(ctx context.Context, d *DataConnection) (*takapi.Mission, error) {
	if err := validation.ValidateStruct(d); err != nil {
		return nil, fmt.Errorf("invalid data connection: %w", err)
	}

	start := time.Now()
	ctx = logging.ContextWithMission(logging.ContextWithConnection(ctx, d.Connection), d.Name)
	log := logging.CtxWith(ctx).Int64("data", d.ID).Logger()

	mission, outcome, err := r.sync(ctx, d)
	if err != nil {
		outcome = "error"
		log.Error().Err(err).Msg("Data sync failed")
	} else {
		log.Info().Str("outcome", outcome).Dur("duration", time.Since(start)).Msg("Data sync complete")
	}
	metrics.RecordReconcile(outcome, time.Since(start))
	return mission, err
}

func (r *Reconciler) sync(ctx context.Context, d *DataConnection) (*takapi.Mission, string, error) {
	groups, err := r.activateGroups(ctx)
	if err != nil {
		return nil, "", err
	}

	opts := &takapi.MissionOptions{Token: d.Token()}
	outcome := "synced"
	mission, err := r.client.Missions.Get(ctx, d.Name, nil, opts)
	switch {
	case err == nil && !d.MissionSync:
		if err := r.client.Missions.Delete(ctx, d.Name, takapi.DeleteMissionInput{}, opts); err != nil {
			return nil, "", err
		}
		metrics.RecordReconcileAction("delete_mission")
		logging.Ctx(ctx).Info().Msg("Deleted mission for disabled data sync")
		return nil, "deleted", nil
	case err == nil:
		// Mission exists; fall through to layers.
	case !errors.Is(err, takapi.ErrNotFound):
		return nil, "", fmt.Errorf("get mission: %w", err)
	case !d.MissionSync:
		return nil, "absent", nil
	default:
		mission, opts, err = r.create(ctx, d, groups)
		if err != nil {
			return nil, "", err
		}
		outcome = "created"
	}

	if err := r.syncLayers(ctx, d, opts); err != nil {
		return mission, "", err
	}
	return mission, outcome, nil
}

// activateGroups marks every group active when any is not, and returns
// the caller's groups.
func (r *Reconciler) activateGroups(ctx context.Context) ([]takapi.Group, error) {
	groups, err := r.client.Groups.List(ctx, true)
	if err != nil {
		return nil, err
	}

	inactive := false
	for _, g := range groups {
		if !g.Active {
			inactive = true
			break
		}
	}
	if !inactive {
		return groups, nil
	}

	active := make([]takapi.Group, len(groups))
	for i, g := range groups {
		g.Active = true
		active[i] = g
	}
	if err := r.client.Groups.UpdateActive(ctx, active); err != nil {
		return nil, err
	}
	metrics.RecordReconcileAction("activate_groups")
	logging.Ctx(ctx).Info().Int("groups", len(active)).Msg("Activated groups for mission API")
	return active, nil
}

// create makes the Mission, persists its token and returns the re-fetched
// Mission along with options carrying the new token.
func (r *Reconciler) create(ctx context.Context, d *DataConnection, groups []takapi.Group) (*takapi.Mission, *takapi.MissionOptions, error) {
	missionGroups := d.MissionGroups
	if len(missionGroups) == 0 {
		missionGroups = takapi.Names(groups)
	}

	created, err := r.client.Missions.Create(ctx, d.Name, takapi.CreateMissionInput{
		Group:       missionGroups,
		CreatorUID:  d.CreatorUID(),
		Description: d.Description,
		DefaultRole: d.MissionRole,
	}, nil)
	if err != nil {
		return nil, nil, err
	}
	metrics.RecordReconcileAction("create_mission")
	logging.Ctx(ctx).Info().Strs("groups", missionGroups).Msg("Created mission")

	opts := &takapi.MissionOptions{Token: d.Token()}
	if created.Token != "" {
		if err := r.store.SaveMissionToken(ctx, d.ID, created.Token); err != nil {
			return nil, nil, fmt.Errorf("save mission token: %w", err)
		}
		token := created.Token
		d.MissionToken = &token
		opts.Token = token
	}

	uid, err := r.store.SubscriberUID(ctx, d.Connection)
	if err != nil {
		return nil, nil, fmt.Errorf("subscriber uid: %w", err)
	}
	if uid != "" {
		if _, err := r.client.Missions.Subscribe(ctx, d.Name, takapi.SubscribeInput{UID: uid}, opts); err != nil {
			return nil, nil, err
		}
		metrics.RecordReconcileAction("subscribe")
	}

	// Create does not return groups.
	mission, err := r.client.Missions.Get(ctx, d.Name, nil, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("get created mission: %w", err)
	}
	if mission.Token == "" {
		mission.Token = created.Token
	}
	return mission, opts, nil
}

// syncLayers creates any missing Mission layer for the local layers. Layers
// already present are left alone even if their type or name differ.
func (r *Reconciler) syncLayers(ctx context.Context, d *DataConnection, opts *takapi.MissionOptions) error {
	local, err := r.store.ListLayers(ctx, d.ID, r.maxLayers)
	if err != nil {
		return fmt.Errorf("list local layers: %w", err)
	}
	if len(local) == 0 {
		return nil
	}

	remote, err := r.client.Layers.List(ctx, d.Name, opts)
	if err != nil {
		return err
	}
	existing := make(map[string]takapi.MissionLayer, len(remote))
	for _, l := range remote {
		existing[l.UID] = l
	}

	for _, l := range local {
		uid := LayerUID(l.ID)
		if have, ok := existing[uid]; ok {
			if have.Type != takapi.LayerGroup || have.Name != l.Name {
				logging.Ctx(ctx).Debug().Str("layer", uid).Str("type", string(have.Type)).Msg("Mission layer differs from local layer; left unchanged")
			}
			continue
		}
		if _, err := r.client.Layers.Create(ctx, d.Name, takapi.CreateLayerInput{
			Name:       l.Name,
			Type:       takapi.LayerGroup,
			UID:        uid,
			CreatorUID: d.CreatorUID(),
		}, opts); err != nil {
			return err
		}
		metrics.RecordReconcileAction("create_layer")
		logging.Ctx(ctx).Info().Str("layer", uid).Msg("Created mission layer")
	}
	return nil
}
