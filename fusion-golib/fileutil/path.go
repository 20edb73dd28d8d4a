package fileutil

import (
	"log"
	"net/url"
	"path"
)

// Join joins path components, preserving any scheme and host in the first
// component, e.g.
//
//	Join("s3://bucket/a", "b", "c") == "s3://bucket/a/b/c"
//	Join("/tmp/out", "train.nc") == "/tmp/out/train.nc"
func Join(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	u, err := url.Parse(parts[0])
	if err != nil {
		log.Fatalln("unparseable path:", parts[0])
	}
	segments := append([]string{u.Path}, parts[1:]...)
	u.Path = path.Join(segments...)
	return u.String()
}

// Dir returns all but the last component of the given path, preserving any
// scheme and host.
func Dir(p string) string {
	u, err := url.Parse(p)
	if err != nil {
		log.Fatalln("unparseable path:", p)
	}
	u.Path = path.Dir(u.Path)
	return u.String()
}
