package asset

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Resource wraps a streamable scene manifest, texture or other asset that
// lives either on disk or behind an http(s) URL.
type Resource struct {
	io.ReadCloser
	url *url.URL
}

// Returns the path to this resource.
func (r *Resource) Path() string {
	return r.url.String()
}

// Returns the base name of the resource.
func (r *Resource) Name() string {
	if r.IsRemote() {
		return path.Base(r.url.Path)
	}
	return filepath.Base(r.url.Path)
}

// Returns true if the Resource is streamed over http/https.
func (r *Resource) IsRemote() bool {
	return r.url.Scheme != ""
}

// Create a new Resource data stream. If relTo is specified and pathToResource
// does not define a scheme, then the path to the new Resource is resolved
// against the directory of relTo.
//
// The caller must close the returned Resource.
func NewResource(pathToResource string, relTo *Resource) (*Resource, error) {
	resURL, err := url.Parse(strings.Replace(pathToResource, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}

	if resURL.Scheme == "" && relTo != nil {
		resURL, err = resolve(resURL.Path, relTo.url)
		if err != nil {
			return nil, err
		}
	}

	return open(resURL)
}

// Open a resource stored inside an asset directory (or URL prefix).
func NewResourceIn(dir, name string) (*Resource, error) {
	if dir == "" {
		return NewResource(name, nil)
	}

	dirURL, err := url.Parse(strings.Replace(dir, `\`, `/`, -1))
	if err != nil {
		return nil, err
	}
	if dirURL.Scheme == "" {
		return NewResource(filepath.Join(dir, name), nil)
	}
	dirURL.Path = path.Join(dirURL.Path, name)
	return open(dirURL)
}

// Create a resource from a reader.
func NewResourceFromStream(name string, source io.Reader) *Resource {
	resURL, _ := url.Parse(name)
	return &Resource{
		ReadCloser: io.NopCloser(source),
		url:        resURL,
	}
}

func resolve(relPath string, base *url.URL) (*url.URL, error) {
	out, _ := url.Parse(base.String())
	prefix := out.Path
	if out.Scheme == "" {
		abs, err := filepath.Abs(base.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not detect abs path for %s; %s", base.String(), err.Error())
		}
		prefix = abs
	}
	out.Path = path.Join(path.Dir(filepath.ToSlash(prefix)), relPath)
	return out, nil
}

func open(resURL *url.URL) (*Resource, error) {
	var reader io.ReadCloser
	var err error

	switch resURL.Scheme {
	case "":
		reader, err = os.Open(filepath.Clean(resURL.Path))
		if err != nil {
			return nil, err
		}
	case "http", "https":
		resp, err := http.Get(resURL.String())
		if err != nil {
			return nil, fmt.Errorf("resource: could not fetch '%s': %s", resURL.String(), err)
		}
		if resp.StatusCode >= 400 {
			resp.Body.Close()
			return nil, fmt.Errorf("resource: could not fetch '%s': status %d", resURL.String(), resp.StatusCode)
		}
		reader = resp.Body
	default:
		return nil, fmt.Errorf("resource: unsupported scheme '%s'", resURL.Scheme)
	}

	return &Resource{
		ReadCloser: reader,
		url:        resURL,
	}, nil
}
