package persistence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BaSui01/agentweave/agent"
	"github.com/BaSui01/agentweave/registry"
	"github.com/BaSui01/agentweave/workflow"
	"go.uber.org/zap"
)

const (
	agentsDir    = "agents"
	workflowsDir = "workflows"
)

// FileStore 把每个定义写成目录下的一个文件
//
//	<dir>/agents/<id>.yaml
//	<dir>/workflows/<id>.yaml
//
// 写入使用临时文件 + rename，读取时任何一个文件解析失败都会使整个读取失败。
type FileStore struct {
	dir    string
	codec  Codec
	logger *zap.Logger
}

// NewFileStore creates a file store rooted at dir.
func NewFileStore(dir string, codec Codec, logger *zap.Logger) *FileStore {
	if codec == nil {
		codec = YAMLCodec{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{
		dir:    dir,
		codec:  codec,
		logger: logger.With(zap.String("component", "file_store")),
	}
}

// Dir returns the root directory.
func (s *FileStore) Dir() string { return s.dir }

// Write implements registry.Sink. Files of definitions no longer present are removed.
func (s *FileStore) Write(ctx context.Context, snap registry.Snapshot) error {
	agentFiles := make(map[string][]byte, len(snap.Agents))
	for _, def := range snap.Agents {
		data, err := s.codec.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode agent %q: %w", def.ID, err)
		}
		agentFiles[s.fileName(def.ID)] = data
	}
	workflowFiles := make(map[string][]byte, len(snap.Workflows))
	for _, def := range snap.Workflows {
		data, err := s.codec.Marshal(def)
		if err != nil {
			return fmt.Errorf("encode workflow %q: %w", def.ID, err)
		}
		workflowFiles[s.fileName(def.ID)] = data
	}

	if err := s.writeDir(ctx, agentsDir, agentFiles); err != nil {
		return err
	}
	if err := s.writeDir(ctx, workflowsDir, workflowFiles); err != nil {
		return err
	}

	s.logger.Debug("snapshot written",
		zap.String("dir", s.dir),
		zap.Int("agents", len(agentFiles)),
		zap.Int("workflows", len(workflowFiles)),
	)
	return nil
}

// Read implements registry.Source. A missing directory reads as empty.
func (s *FileStore) Read(ctx context.Context) (registry.Snapshot, error) {
	var snap registry.Snapshot

	err := s.readDir(ctx, agentsDir, func(name string, data []byte) error {
		var def agent.Definition
		if err := s.codec.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		snap.Agents = append(snap.Agents, def.Normalize())
		return nil
	})
	if err != nil {
		return registry.Snapshot{}, err
	}

	err = s.readDir(ctx, workflowsDir, func(name string, data []byte) error {
		var def workflow.Definition
		if err := s.codec.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		snap.Workflows = append(snap.Workflows, def.Normalize())
		return nil
	})
	if err != nil {
		return registry.Snapshot{}, err
	}
	return snap, nil
}

// fileName escapes id into a single path element. A leading dot is escaped
// too, since Read skips hidden files.
func (s *FileStore) fileName(id string) string {
	name := url.PathEscape(id)
	if strings.HasPrefix(name, ".") {
		name = "%2E" + name[1:]
	}
	return name + s.codec.Ext()
}

func (s *FileStore) writeDir(ctx context.Context, sub string, files map[string][]byte) error {
	dir := filepath.Join(s.dir, sub)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	for name, data := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != s.codec.Ext() {
			continue
		}
		if _, keep := files[e.Name()]; keep {
			continue
		}
		if err := os.Remove(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("remove stale %s: %w", e.Name(), err)
		}
		s.logger.Debug("stale definition removed", zap.String("file", e.Name()))
	}
	return nil
}

func (s *FileStore) readDir(ctx context.Context, sub string, fn func(name string, data []byte) error) error {
	dir := filepath.Join(s.dir, sub)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("list %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != s.codec.Ext() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		if err := fn(filepath.Join(sub, name), data); err != nil {
			return err
		}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
