// Command vdiskctl is a small demonstration CLI over the vdisk package:
// it creates, inspects and edits a single volume stored in a host file.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/vdiskfs/vdisk"
	"github.com/vdiskfs/vdisk/hostfile"
	"github.com/vdiskfs/vdisk/sizefmt"
)

func main() {
	if len(os.Args) < 3 {
		usage()
		os.Exit(2)
	}

	image := os.Args[1]
	cmd := os.Args[2]
	args := os.Args[3:]

	log := logrus.New()

	if cmd == "init" {
		if err := runInit(image, log); err != nil {
			fatal(err)
		}
		return
	}

	buf, err := hostfile.Load(image)
	if err != nil {
		fatal(err)
	}
	vol, err := vdisk.Open(buf, vdisk.WithLogger(log))
	if err != nil {
		fatal(err)
	}

	switch cmd {
	case "ls":
		if err := runLs(vol, arg(args, 0, `V:\`)); err != nil {
			fatal(err)
		}
	case "mkdir":
		if err := runMkdir(vol, arg(args, 0, "")); err != nil {
			fatal(err)
		}
	case "cat":
		if err := runCat(vol, arg(args, 0, "")); err != nil {
			fatal(err)
		}
	case "put":
		if err := runPut(vol, arg(args, 0, ""), arg(args, 1, "")); err != nil {
			fatal(err)
		}
	case "rm":
		if err := runRm(vol, arg(args, 0, "")); err != nil {
			fatal(err)
		}
	case "df":
		if err := runDF(vol); err != nil {
			fatal(err)
		}
	case "info":
		if err := runInfo(vol, image); err != nil {
			fatal(err)
		}
		return
	default:
		usage()
		os.Exit(2)
	}

	if err := hostfile.Save(image, vol.SaveToBuffer()); err != nil {
		fatal(err)
	}
}

func runInit(image string, log *logrus.Logger) error {
	vol, err := vdisk.NewStandard(vdisk.WithLogger(log))
	if err != nil {
		return err
	}
	return hostfile.Save(image, vol.SaveToBuffer())
}

func runLs(vol *vdisk.Volume, path string) error {
	dirs, err := vol.ListSubdirectories(path)
	if err != nil {
		return err
	}
	files, err := vol.ListFiles(path)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		fmt.Printf("%s/\n", d)
	}
	for _, f := range files {
		h, err := vol.GetFile(f)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", f, sizefmt.Bytes(int64(h.Size)))
	}
	return nil
}

func runMkdir(vol *vdisk.Volume, path string) error {
	_, err := vol.CreateDirectory(path)
	return err
}

func runCat(vol *vdisk.Volume, path string) error {
	data, err := vol.ReadFileBytes(path)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runPut(vol *vdisk.Volume, path, hostPath string) error {
	data, err := hostfile.Load(hostPath)
	if err != nil {
		return err
	}
	return vol.WriteFileBytes(path, data)
}

func runRm(vol *vdisk.Volume, path string) error {
	return vol.DeleteFile(path)
}

func runDF(vol *vdisk.Volume) error {
	free, err := vol.FreeSpace()
	if err != nil {
		return err
	}
	fmt.Printf("free: %s\n", sizefmt.Bytes(free))
	return nil
}

// runInfo reports the in-image geometry alongside the host file's own
// timestamps (birth time where the platform exposes it), which the image
// format has no slot for since it only ever sees its own bytes.
func runInfo(vol *vdisk.Volume, image string) error {
	geom := vol.Geometry()
	free, err := vol.FreeSpace()
	if err != nil {
		return err
	}
	fmt.Printf("storage size:   %s\n", sizefmt.Bytes(geom.StorageSize))
	fmt.Printf("block size:     %d\n", geom.BlockSize)
	fmt.Printf("pointer size:   %d\n", geom.PointerSize)
	fmt.Printf("block count:    %d\n", geom.BlockCount)
	fmt.Printf("free space:     %s\n", sizefmt.Bytes(free))

	st, err := hostfile.Stat(image)
	if err != nil {
		return err
	}
	fmt.Printf("host modified:  %s\n", st.ModTime.Format("2006-01-02 15:04:05"))
	if st.HasBirth {
		fmt.Printf("host created:   %s\n", st.BirthTime.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func arg(args []string, i int, def string) string {
	if i < len(args) {
		return args[i]
	}
	return def
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "vdiskctl:", err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vdiskctl <image> <command> [args]

commands:
  init                    create a new standard-preset volume at <image>
  ls [path]               list a directory (default V:\)
  mkdir <path>            create a directory
  cat <path>              print a file's content to stdout
  put <path> <hostfile>   write a host file's content into the volume
  rm <path>               delete a file
  df                      report free space
  info                    report geometry and host file timestamps`)
}
