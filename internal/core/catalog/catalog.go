package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/compose-spec/compose-go/v2/types"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// Project Descriptor
// =============================================================================

// Project identifies one compose project: a directory root plus relative
// paths to the compose descriptor and environment file.
type Project struct {
	Name        string
	Dir         string
	ComposeFile string
	EnvFile     string
}

// ComposePath returns the absolute path of the compose descriptor.
func (p Project) ComposePath() string {
	return filepath.Join(p.Dir, p.ComposeFile)
}

// EnvPath returns the absolute path of the environment file.
func (p Project) EnvPath() string {
	return filepath.Join(p.Dir, p.EnvFile)
}

// =============================================================================
// Service Resolution
// =============================================================================

// ResolveServices reads the project's compose descriptor and returns its
// declared service names, sorted. Every failure maps to a distinguishable
// sentinel wrapped in a CatalogError; callers are expected to log it, treat
// the project as empty and continue with the rest of the run.
func ResolveServices(ctx context.Context, project Project) ([]string, error) {
	path := project.ComposePath()

	content, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, NewCatalogError(project.Name, path, "descriptor not found", ErrDescriptorNotFound)
		case errors.Is(err, fs.ErrPermission):
			return nil, NewCatalogError(project.Name, path, "permission denied", ErrPermissionDenied)
		default:
			return nil, NewCatalogError(project.Name, path, err.Error(), ErrDescriptorRead)
		}
	}

	// Parse YAML into a map first so syntax errors surface as a distinct kind.
	var dict map[string]interface{}
	if err := yaml.Unmarshal(content, &dict); err != nil {
		return nil, NewCatalogError(project.Name, path, "invalid YAML syntax", ErrMalformedDescriptor)
	}
	if dict == nil {
		return nil, NewCatalogError(project.Name, path, "descriptor is empty", ErrMalformedDescriptor)
	}

	composeProject, err := loader.LoadWithContext(ctx, types.ConfigDetails{
		ConfigFiles: []types.ConfigFile{
			{
				Filename: path,
				Content:  content,
				Config:   dict,
			},
		},
	}, func(opts *loader.Options) {
		opts.SetProjectName(projectName(project), false)
		// Resolution only needs the service name set; interpolation would
		// require the env file and validation would reject specs the compose
		// CLI itself still accepts.
		opts.SkipValidation = true
		opts.SkipInterpolation = true
		opts.SkipNormalization = true
		opts.SkipExtends = true
	})
	if err != nil {
		return nil, NewCatalogError(project.Name, path, err.Error(), ErrMalformedDescriptor)
	}

	names := composeProject.ServiceNames()
	sort.Strings(names)
	return names, nil
}

func projectName(p Project) string {
	if p.Name != "" {
		return p.Name
	}
	return filepath.Base(p.Dir)
}
