package service

import (
	"context"
	"time"

	"cruce-web/internal/config"
	"cruce-web/internal/database"
	"cruce-web/internal/metrics"
	"cruce-web/internal/models"
	"cruce-web/internal/repository"
	"cruce-web/internal/utils"

	"github.com/sirupsen/logrus"
)

// Query execution modes.
const (
	ModeAll     = "all"
	ModeChunked = "chunked"
)

// InstanceInfo is the public view of a configured instance.
type InstanceInfo struct {
	Alias      string `json:"alias"`
	ServerName string `json:"server_name"`
	Database   string `json:"database"`
}

type CruceService struct {
	cfg      *config.Config
	registry *database.Registry
	builder  *repository.QueryBuilder
	cache    TableCache
	logger   *logrus.Logger
}

func NewCruceService(cfg *config.Config, registry *database.Registry, builder *repository.QueryBuilder, cache TableCache) *CruceService {
	return &CruceService{
		cfg:      cfg,
		registry: registry,
		builder:  builder,
		cache:    cache,
		logger:   utils.GetLogger(),
	}
}

// Instances lists the configured connection targets without credentials.
func (s *CruceService) Instances() []InstanceInfo {
	out := make([]InstanceInfo, 0, len(s.cfg.Instances))
	for _, inst := range s.cfg.Instances {
		out = append(out, InstanceInfo{Alias: inst.Alias, ServerName: inst.ServerName, Database: inst.Database})
	}
	return out
}

// BuildQuery validates the filters and assembles the report query.
func (s *CruceService) BuildQuery(filters models.QueryFilterSet) (models.AssembledQuery, error) {
	f := filters.Normalized()
	if err := utils.ValidateFilters(f); err != nil {
		metrics.ObserveError(err)
		return models.AssembledQuery{}, err
	}
	q, err := s.builder.Build(f)
	if err != nil {
		metrics.ObserveError(err)
		return models.AssembledQuery{}, err
	}
	return q, nil
}

// RunQuery assembles, executes and recomputes the report for one instance.
func (s *CruceService) RunQuery(ctx context.Context, instance string, filters models.QueryFilterSet, mode string) (models.ResultTable, error) {
	f := filters.Normalized()
	q, err := s.BuildQuery(f)
	if err != nil {
		return nil, err
	}

	db, inst, err := s.registry.Get(ctx, instance)
	if err != nil {
		metrics.ObserveError(err)
		s.logger.WithError(err).WithField("instance", instance).Error("Cannot acquire database pool")
		return nil, err
	}

	repo := repository.NewCruceRepository(db, inst.Alias, s.cfg.QueryTimeout)
	start := time.Now()

	var raw models.RawTable
	if mode == ModeChunked {
		raw, err = repo.FetchChunked(ctx, q, s.cfg.QueryChunkSize)
	} else {
		mode = ModeAll
		raw, err = repo.FetchAll(ctx, q)
	}
	if err != nil {
		metrics.ObserveError(err)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"instance": inst.Alias,
			"mode":     mode,
		}).Error("Report query failed")
		return nil, err
	}

	table := RecomputeRecords(raw.Rows)
	metrics.ObserveQuery(inst.Alias, mode, start, len(table))
	s.logger.WithFields(logrus.Fields{
		"instance":    inst.Alias,
		"mode":        mode,
		"date_option": int(f.DateOption),
		"rows":        len(table),
		"duration":    time.Since(start).String(),
	}).Info("Report query completed")

	return table, nil
}

// Import runs the unfiltered query for a date option and caches the full table.
func (s *CruceService) Import(ctx context.Context, instance string, option models.DateOption) (models.ResultTable, error) {
	inst, err := s.cfg.Instance(instance)
	if err != nil {
		return nil, err
	}

	filters := models.QueryFilterSet{DateOption: option}.Normalized()
	table, err := s.RunQuery(ctx, inst.Alias, filters, ModeChunked)
	if err != nil {
		return nil, err
	}

	key := ImportKey(inst.Alias, filters.DateOption)
	if err := s.cache.Store(ctx, key, table, s.cfg.CacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cannot cache imported table")
	}
	return table, nil
}

// FilterView filters the cached import in memory and recomputes totals over the visible rows.
func (s *CruceService) FilterView(ctx context.Context, instance string, filters models.QueryFilterSet) (models.ResultTable, error) {
	f := filters.Normalized()
	if err := utils.ValidateFilters(f); err != nil {
		return nil, err
	}
	inst, err := s.cfg.Instance(instance)
	if err != nil {
		return nil, err
	}

	full, err := s.cache.Load(ctx, ImportKey(inst.Alias, f.DateOption))
	if err != nil {
		metrics.CacheLookups.WithLabelValues("miss").Inc()
		return nil, err
	}
	metrics.CacheLookups.WithLabelValues("hit").Inc()

	return Recompute(full.Filter(MatchRow(f))), nil
}
