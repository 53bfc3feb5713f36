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
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMaybeDownloadLocal(t *testing.T) {
	ctx := context.Background()
	if k, err := maybeDownload(ctx, "/dev/null"); err != nil || k != "/dev/null" {
		t.Error("Expected /dev/null, got ", k, err)
	}
	if k, err := maybeDownload(ctx, "/blah/test/"); err != nil || k != "/blah/test/" {
		t.Error("Expected /blah/test/, got ", k, err)
	}
}

func TestMaybeDownloadRemoteFail(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	if _, err := maybeDownload(context.Background(), srv.URL+"/test.nc"); err == nil {
		t.Error("expected an error")
	}
}

func TestMaybeDownloadRemote(t *testing.T) {
	dir, err := ioutil.TempDir("", "indiff")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(dir)
	if err := ioutil.WriteFile(filepath.Join(dir, "test.nc"), []byte("netcdf"), 0644); err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(http.FileServer(http.Dir(dir)))
	defer srv.Close()
	k, err := maybeDownload(context.Background(), srv.URL+"/test.nc")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(k, "test.nc") || k == filepath.Join(dir, "test.nc") {
		t.Error("Expected tempDir/test.nc, got ", k)
	}
	b, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "netcdf" {
		t.Errorf("downloaded contents: %q", b)
	}
}

func TestIsBlob(t *testing.T) {
	for path, want := range map[string]bool{
		"gs://bucket/file.nc":   true,
		"s3://bucket/file.nc":   true,
		"file://bucket/file.nc": true,
		"http://host/file.nc":   false,
		"/local/file.nc":        false,
	} {
		if IsBlob(path) != want {
			t.Errorf("%s: want %v", path, want)
		}
	}
}

func TestOpenBucketInvalid(t *testing.T) {
	if _, err := OpenBucket(context.Background(), "ftp://bucket"); err == nil {
		t.Error("expected an error")
	}
}

// TestBlobRoundTrip uploads a file to a local blob bucket and downloads
// it again.
func TestBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	const bucket = "indifftestbucket"
	if err := os.Mkdir(bucket, 0755); err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(bucket)

	var u uploader
	remote := "file://" + bucket + "/out.nc"
	local, err := u.maybeUpload(remote)
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(u.dir)
	if local == remote || filepath.Base(local) != "out.nc" {
		t.Errorf("local path: %s", local)
	}
	if err := ioutil.WriteFile(local, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := u.upload(ctx); err != nil {
		t.Fatal(err)
	}

	k, err := maybeDownload(ctx, remote)
	if err != nil {
		t.Fatal(err)
	}
	if k == remote {
		t.Fatalf("blob was not downloaded: %s", k)
	}
	b, err := ioutil.ReadFile(k)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "data" {
		t.Errorf("downloaded contents: %q", b)
	}

	if _, err := checkOutputFile(ctx, remote); err != nil {
		t.Errorf("checking blob output file: %v", err)
	}
}

func TestMaybeUploadLocal(t *testing.T) {
	var u uploader
	p, err := u.maybeUpload("/tmp/out.nc")
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/out.nc" || len(u.files) != 0 {
		t.Errorf("local file should not be uploaded: %s, %v", p, u.files)
	}
}
