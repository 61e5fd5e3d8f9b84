// 配置热重载。
//
// 只有 engine 段可以在运行时生效，其余字段的变更会被记录并标记为需要重启。
package config

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// --- 热重载类型定义 ---

// ConfigChange 描述一个字段的变化
type ConfigChange struct {
	// 字段路径，例如 Engine.StepTimeout
	Path     string `json:"path"`
	OldValue any    `json:"old_value,omitempty"`
	NewValue any    `json:"new_value,omitempty"`
	// 是否需要重启才能生效
	RequiresRestart bool `json:"requires_restart"`
}

// ReloadCallback 在新配置生效后调用
type ReloadCallback func(oldConfig, newConfig *Config, changes []ConfigChange)

// hotReloadablePrefixes 运行时可生效的配置段
var hotReloadablePrefixes = []string{"Engine."}

// IsHotReloadable reports whether the field at path takes effect without restart.
func IsHotReloadable(path string) bool {
	for _, p := range hotReloadablePrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// --- 热重载管理器 ---

// Reloader 监听配置文件并在内容变化时重新加载。校验失败的新配置被丢弃，
// 当前配置保持不变。
type Reloader struct {
	mu        sync.RWMutex
	loader    *Loader
	config    *Config
	callbacks []ReloadCallback
	watcher   *FileWatcher
	logger    *zap.Logger
}

// NewReloader creates a reloader starting from current. loader must carry
// the config path to watch.
func NewReloader(loader *Loader, current *Config, logger *zap.Logger) *Reloader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reloader{
		loader: loader,
		config: current,
		logger: logger.With(zap.String("component", "config_reloader")),
	}
}

// Config returns the configuration currently in effect.
func (r *Reloader) Config() *Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.config
}

// OnReload registers a callback invoked after every successful reload.
func (r *Reloader) OnReload(cb ReloadCallback) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks = append(r.callbacks, cb)
}

// Start watches the loader's config file until ctx is done or Stop is called.
func (r *Reloader) Start(ctx context.Context, opts ...WatcherOption) error {
	path := r.loader.ConfigPath()
	if path == "" {
		return fmt.Errorf("no config file to watch")
	}
	w, err := NewFileWatcher([]string{path}, append([]WatcherOption{WithWatcherLogger(r.logger)}, opts...)...)
	if err != nil {
		return err
	}
	w.OnChange(func(evt FileEvent) {
		if evt.Op == FileOpRemove {
			r.logger.Warn("config file removed, keeping current configuration", zap.String("path", evt.Path))
			return
		}
		if _, err := r.Reload(); err != nil {
			r.logger.Error("config reload rejected", zap.Error(err))
		}
	})
	if err := w.Start(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.watcher = w
	r.mu.Unlock()
	return nil
}

// Stop stops watching.
func (r *Reloader) Stop() error {
	r.mu.Lock()
	w := r.watcher
	r.watcher = nil
	r.mu.Unlock()
	if w == nil {
		return nil
	}
	return w.Stop()
}

// Reload loads and validates the configuration and makes it current.
// It returns the detected changes.
func (r *Reloader) Reload() ([]ConfigChange, error) {
	next, err := r.loader.Load()
	if err != nil {
		return nil, err
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	prev := r.config
	changes := detectChanges(prev, next)
	r.config = next
	callbacks := make([]ReloadCallback, len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.mu.Unlock()

	for _, c := range changes {
		r.logChange(c)
	}
	if len(changes) == 0 {
		return nil, nil
	}
	for _, cb := range callbacks {
		r.notify(cb, prev, next, changes)
	}
	return changes, nil
}

func (r *Reloader) notify(cb ReloadCallback, prev, next *Config, changes []ConfigChange) {
	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("reload callback panicked", zap.Any("panic", p))
		}
	}()
	cb(prev, next, changes)
}

func (r *Reloader) logChange(c ConfigChange) {
	fields := []zap.Field{
		zap.String("path", c.Path),
		zap.Bool("requires_restart", c.RequiresRestart),
	}
	if !isSensitive(c.Path) {
		fields = append(fields, zap.Any("old_value", c.OldValue), zap.Any("new_value", c.NewValue))
	}
	r.logger.Info("configuration changed", fields...)
}

// detectChanges 检测新旧配置之间的变化
func detectChanges(oldConfig, newConfig *Config) []ConfigChange {
	var changes []ConfigChange
	compareStructs("", reflect.ValueOf(oldConfig).Elem(), reflect.ValueOf(newConfig).Elem(), &changes)
	return changes
}

// compareStructs 递归比较结构体字段
func compareStructs(prefix string, oldVal, newVal reflect.Value, changes *[]ConfigChange) {
	t := oldVal.Type()
	for i := 0; i < oldVal.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		path := field.Name
		if prefix != "" {
			path = prefix + "." + field.Name
		}

		oldField, newField := oldVal.Field(i), newVal.Field(i)
		if oldField.Kind() == reflect.Struct {
			compareStructs(path, oldField, newField, changes)
			continue
		}
		if !reflect.DeepEqual(oldField.Interface(), newField.Interface()) {
			*changes = append(*changes, ConfigChange{
				Path:            path,
				OldValue:        oldField.Interface(),
				NewValue:        newField.Interface(),
				RequiresRestart: !IsHotReloadable(path),
			})
		}
	}
}

func isSensitive(path string) bool {
	lower := strings.ToLower(path)
	return strings.Contains(lower, "password") || strings.Contains(lower, "secret") || strings.Contains(lower, "token")
}
