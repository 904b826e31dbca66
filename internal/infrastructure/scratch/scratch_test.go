package scratch

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

type failingRemoveFs struct {
	afero.Fs
}

func (f failingRemoveFs) RemoveAll(path string) error {
	return os.ErrPermission
}

func TestManager(t *testing.T) {
	Convey("Given a scratch Manager", t, func() {
		fs := afero.NewMemMapFs()
		manager := New(fs)
		root := "/scratch"

		So(manager.Prepare(root), ShouldBeNil)

		Convey("Size", func() {
			archive := filepath.Join(root, "orders.tar.gz")
			So(afero.WriteFile(fs, archive, []byte("archive"), 0o644), ShouldBeNil)

			Convey("It should stat through the manager's filesystem", func() {
				n, err := manager.Size(archive)
				So(err, ShouldBeNil)
				So(n, ShouldEqual, int64(7))

				_, err = manager.Size(filepath.Join(root, "missing"))
				So(os.IsNotExist(err), ShouldBeTrue)
			})
		})

		Convey("RemoveIfExists", func() {
			Convey("When the path does not exist", func() {
				err := manager.RemoveIfExists(filepath.Join(root, "missing"))

				Convey("It should succeed", func() {
					So(err, ShouldBeNil)
				})
			})

			Convey("When the path is a populated directory", func() {
				dumpDir := filepath.Join(root, "orders_2026_10_18_1")
				So(fs.MkdirAll(filepath.Join(dumpDir, "orders"), 0o755), ShouldBeNil)
				So(afero.WriteFile(fs, filepath.Join(dumpDir, "orders", "items.bson"), []byte("data"), 0o644), ShouldBeNil)

				err := manager.RemoveIfExists(dumpDir)

				Convey("It should remove it recursively", func() {
					So(err, ShouldBeNil)
					exists, _ := manager.Exists(dumpDir)
					So(exists, ShouldBeFalse)
				})

				Convey("It should tolerate being called again", func() {
					So(manager.RemoveIfExists(dumpDir), ShouldBeNil)
					So(manager.RemoveIfExists(dumpDir), ShouldBeNil)
				})
			})

			Convey("When removal fails", func() {
				So(fs.MkdirAll("/locked", 0o755), ShouldBeNil)
				So(afero.WriteFile(fs, "/locked/file", []byte("x"), 0o644), ShouldBeNil)
				err := New(failingRemoveFs{fs}).RemoveIfExists("/locked")

				Convey("It should return a CleanupError", func() {
					var cleanupErr *CleanupError
					So(errors.As(err, &cleanupErr), ShouldBeTrue)
					So(cleanupErr.Path, ShouldEqual, "/locked")
					So(errors.Is(err, os.ErrPermission), ShouldBeTrue)
				})
			})
		})

		Convey("Clean", func() {
			archive := filepath.Join(root, "orders.tar.gz")
			dumpDir := filepath.Join(root, "orders")
			So(afero.WriteFile(fs, archive, []byte("gz"), 0o644), ShouldBeNil)
			So(fs.MkdirAll(dumpDir, 0o755), ShouldBeNil)

			Convey("When every path can be removed", func() {
				err := manager.Clean(NewCleanupSet(dumpDir, archive))

				Convey("It should leave nothing behind", func() {
					So(err, ShouldBeNil)
					for _, p := range []string{dumpDir, archive} {
						exists, _ := manager.Exists(p)
						So(exists, ShouldBeFalse)
					}
				})
			})

			Convey("When every removal fails", func() {
				err := New(failingRemoveFs{fs}).Clean(NewCleanupSet(dumpDir, archive))

				Convey("It should report each path", func() {
					So(multierr.Errors(err), ShouldHaveLength, 2)
				})
			})
		})
	})
}
