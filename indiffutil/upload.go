/*
Copyright © 2019 the InMAP authors.
This file is part of InMAP.

InMAP is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

InMAP is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with InMAP.  If not, see <http://www.gnu.org/licenses/>.
*/

package indiffutil

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/go-cloud/blob"
)

// uploader holds output files that are written locally and then copied
// to blob storage.
type uploader struct {
	// files is a set of file path pairs. The first of each pair
	// is a local file path and the second is a blob storage
	// path where it should be uploaded to.
	files [][2]string
	dir   string
}

// maybeUpload checks whether the given output file path refers to
// a blob storage location. If it does, then a temporary file location
// is returned. The file will then be uploaded to blob storage when
// the upload method is run.
func (u *uploader) maybeUpload(path string) (string, error) {
	if !IsBlob(path) {
		return path, nil
	}
	if u.dir == "" {
		var err error
		if u.dir, err = ioutil.TempDir("", "indiff"); err != nil {
			return "", err
		}
	}
	local := filepath.Join(u.dir, filepath.Base(path))
	u.files = append(u.files, [2]string{local, path})
	return local, nil
}

// upload copies the local files to blob storage.
func (u *uploader) upload(ctx context.Context) error {
	for _, files := range u.files {
		if err := uploadFile(ctx, files[0], files[1]); err != nil {
			return err
		}
	}
	return nil
}

func uploadFile(ctx context.Context, local, remote string) error {
	r, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("indiffutil: opening file '%s' for upload: %s", local, err)
	}
	defer r.Close()
	url, err := url.Parse(remote)
	if err != nil {
		return fmt.Errorf("indiffutil: parsing url '%s' for upload: %s", remote, err)
	}
	bucket, err := OpenBucket(ctx, url.Scheme+"://"+url.Host)
	if err != nil {
		return fmt.Errorf("indiffutil: opening bucket to upload file '%s': %s", remote, err)
	}
	w, err := bucket.NewWriter(ctx, strings.TrimPrefix(url.Path, "/"), &blob.WriterOptions{})
	if err != nil {
		return fmt.Errorf("indiffutil: opening writer to upload file '%s': %s", remote, err)
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("indiffutil: uploading file '%s' to '%s': %s", local, remote, err)
	}
	return w.Close()
}
