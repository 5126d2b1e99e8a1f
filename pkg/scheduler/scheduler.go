// Package scheduler 提供定时任务调度功能，使用 gocron/v2 库.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artguard/artguard/pkg/log"
)

// refreshInterval 后台状态刷新间隔.
const refreshInterval = 10 * time.Second

// JobStatus 表示任务的状态类型.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled" // 任务已调度
	StatusRunning   JobStatus = "running"   // 任务正在运行
	StatusError     JobStatus = "error"     // 任务出错
)

// JobInfo 任务快照，供管理端点展示.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// entry 把 gocron.Job 与其快照捆绑在一起，统一按名称索引.
type entry struct {
	job  gocron.Job
	info *JobInfo
}

// Scheduler 对 gocron 的薄封装，维护按名称索引的任务表.
type Scheduler struct {
	scheduler gocron.Scheduler
	entries   map[string]*entry
	names     map[uuid.UUID]string
	mu        sync.RWMutex
	logger    *zerolog.Logger
	cancel    context.CancelFunc
}

// NewScheduler 创建一个新的 Scheduler 实例并启动状态刷新器.
func NewScheduler() (*Scheduler, error) {
	gs, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Scheduler{
		scheduler: gs,
		entries:   make(map[string]*entry),
		names:     make(map[uuid.UUID]string),
		logger:    log.Logger(),
		cancel:    cancel,
	}

	go s.refreshLoop(ctx)

	return s, nil
}

// AddCron 添加一个基于 cron 表达式的定时任务，名称重复时报错.
func (s *Scheduler) AddCron(name string, cronExpr string, job func(ctx context.Context), ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	// 包装任务以捕获 panic 并维护状态
	wrapped := func(ctx context.Context) {
		s.setStatus(name, StatusRunning, "")

		defer func() {
			if r := recover(); r != nil {
				s.setStatus(name, StatusError, fmt.Sprintf("panic in job: %v", r))
				s.logger.Error().Str("job", name).Interface("panic", r).Msg("Job panicked")
			}
		}()

		job(ctx)

		s.mu.Lock()
		if e, ok := s.entries[name]; ok {
			e.info.Status = StatusScheduled
			e.info.Error = ""
			e.info.LastSuccess = time.Now()
			e.info.UpdatedAt = time.Now()
		}
		s.mu.Unlock()
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(wrapped, ctx),
		gocron.WithName(name),
	)
	if err != nil {
		return err
	}

	now := time.Now()
	nextRun, _ := j.NextRun()

	s.entries[name] = &entry{
		job: j,
		info: &JobInfo{
			ID:        j.ID().String(),
			Name:      name,
			CronExpr:  cronExpr,
			NextRun:   nextRun,
			Status:    StatusScheduled,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	s.names[j.ID()] = name

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("Added cron job")

	return nil
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.entries[name]
	if !exists {
		return fmt.Errorf("job with name %s does not exist", name)
	}

	if err := s.scheduler.RemoveJob(e.job.ID()); err != nil {
		return err
	}

	delete(s.names, e.job.ID())
	delete(s.entries, name)

	s.logger.Info().Str("job", name).Msg("Removed job")

	return nil
}

// RemoveJob 通过 ID 移除任务.
func (s *Scheduler) RemoveJob(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if name, exists := s.names[id]; exists {
		delete(s.entries, name)
		delete(s.names, id)
	}

	return s.scheduler.RemoveJob(id)
}

// GetJobInfoByName 通过名称获取任务快照.
func (s *Scheduler) GetJobInfoByName(name string) (*JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[name]
	if !exists {
		return nil, fmt.Errorf("job with name %s does not exist", name)
	}

	info := *e.info

	return &info, nil
}

// GetJobInfos 返回所有定时任务的快照，用于可视化和监控.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]JobInfo, 0, len(s.entries))
	for _, e := range s.entries {
		infos = append(infos, *e.info)
	}

	return infos
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Msg("Starting scheduler")
	s.scheduler.Start()
}

// StopJobs 停止所有任务的执行，但保留任务定义.
func (s *Scheduler) StopJobs() error {
	return s.scheduler.StopJobs()
}

// JobsWaitingInQueue 返回队列中等待执行的任务数.
func (s *Scheduler) JobsWaitingInQueue() int {
	return s.scheduler.JobsWaitingInQueue()
}

// Shutdown 关闭调度器并停止状态刷新器.
func (s *Scheduler) Shutdown() error {
	s.cancel()
	return s.scheduler.Shutdown()
}

// setStatus 更新单个任务的状态.
func (s *Scheduler) setStatus(name string, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[name]; ok {
		e.info.Status = status
		e.info.Error = errMsg
		e.info.UpdatedAt = time.Now()
	}
}

// refreshLoop 周期性同步 gocron 侧的运行时间信息.
func (s *Scheduler) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refresh()
		}
	}
}

// refresh 把每个任务的下次/上次运行时间写回快照.
func (s *Scheduler) refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range s.entries {
		if nextRun, err := e.job.NextRun(); err == nil {
			e.info.NextRun = nextRun
		}

		if lastRun, err := e.job.LastRun(); err == nil {
			e.info.LastRun = lastRun
		}

		e.info.UpdatedAt = time.Now()
	}
}
