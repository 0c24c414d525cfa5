package util

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ComicInfo is the subset of the ComicRack metadata schema that readers use
// to group and order chapters.
type ComicInfo struct {
	XMLName   xml.Name `xml:"ComicInfo"`
	Title     string   `xml:"Title,omitempty"`
	Series    string   `xml:"Series,omitempty"`
	Number    string   `xml:"Number,omitempty"`
	Web       string   `xml:"Web,omitempty"`
	PageCount int      `xml:"PageCount,omitempty"`
	Manga     string   `xml:"Manga,omitempty"`
}

// CreateCBZ zips files, sorted by name, into output. A non-nil info is
// stored as ComicInfo.xml.
func CreateCBZ(files []string, output string, info *ComicInfo) (err error) {
	out, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("cbz: %w", err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cbz: close %s: %w", output, cerr)
		}
	}()

	z := zip.NewWriter(out)
	defer func() {
		if cerr := z.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("cbz: finish %s: %w", output, cerr)
		}
	}()

	sorted := append([]string(nil), files...)
	sort.Strings(sorted)
	for _, file := range sorted {
		if err := addFileToZip(z, file); err != nil {
			return fmt.Errorf("cbz: add %s: %w", file, err)
		}
	}

	if info != nil {
		if info.PageCount == 0 {
			info.PageCount = len(files)
		}
		if err := addComicInfo(z, info); err != nil {
			return fmt.Errorf("cbz: comic info: %w", err)
		}
	}

	return nil
}

func addComicInfo(z *zip.Writer, info *ComicInfo) error {
	w, err := z.Create("ComicInfo.xml")
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	return enc.Encode(info)
}

func addFileToZip(z *zip.Writer, file string) (err error) {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = filepath.Base(file)
	// images are already compressed
	header.Method = zip.Store

	w, err := z.CreateHeader(header)
	if err != nil {
		return err
	}

	_, err = io.Copy(w, f)

	return err
}
