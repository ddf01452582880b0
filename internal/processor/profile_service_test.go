package processor

import (
	"bytes"
	"context"
	"errors"
	"regexp"
	"strings"
	"testing"

	"talent-bridge-go/internal/storage/models"
	"talent-bridge-go/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileFixture struct {
	employees *MockEmployeeStore
	objects   *MockObjectStore
	decoder   *MockDecoder
	extractor *MockExtractor
	profiles  *MockProfileStore
	service   *ProfileService
}

func newProfileFixture(opts ...SettingOpt) *profileFixture {
	f := &profileFixture{
		employees: NewMockEmployeeStore(&models.Employee{ID: 7, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}),
		objects:   NewMockObjectStore(),
		decoder:   &MockDecoder{text: "Skills: Go"},
		extractor: &MockExtractor{fragment: sampleFragment()},
		profiles:  NewMockProfileStore(),
	}
	f.profiles.addEmployee(7, nil, nil)
	opts = append([]SettingOpt{WithBuckets("cvs", "staging")}, opts...)
	f.service = NewProfileService(f.employees, f.objects, f.decoder, f.extractor, NewReconciler(f.profiles, opts...), opts...)
	return f
}

func TestUploadCV_StoresObjectAndKey(t *testing.T) {
	f := newProfileFixture()
	payload := []byte("%PDF-1.4 fake")

	result, err := f.service.UploadCV(context.Background(), 7, "Ada CV.PDF", bytes.NewReader(payload), int64(len(payload)))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^cv/7/[0-9a-f-]{36}\.pdf$`), result.ObjectKey)
	assert.Equal(t, "Ada CV.PDF", result.Filename)
	assert.Equal(t, payload, f.objects.objects["cvs/"+result.ObjectKey])

	employee := f.employees.employees[7]
	require.NotNil(t, employee.CVObjectKey)
	assert.Equal(t, result.ObjectKey, *employee.CVObjectKey)
	assert.Equal(t, "Ada CV.PDF", employee.CVFilename)
}

func TestUploadCV_ReplacesPreviousObject(t *testing.T) {
	f := newProfileFixture()
	oldKey := "cv/7/old.docx"
	f.employees.employees[7].CVObjectKey = &oldKey
	f.objects.objects["cvs/"+oldKey] = []byte("old")

	_, err := f.service.UploadCV(context.Background(), 7, "new.docx", strings.NewReader("new"), 3)
	require.NoError(t, err)

	assert.Contains(t, f.objects.deleted, "cvs/"+oldKey)
	_, stillThere := f.objects.objects["cvs/"+oldKey]
	assert.False(t, stillThere)
}

func TestUploadCV_RejectsUnsupportedExtension(t *testing.T) {
	f := newProfileFixture()

	_, err := f.service.UploadCV(context.Background(), 7, "notes.txt", strings.NewReader("hello"), 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Empty(t, f.objects.uploaded)
}

func TestUploadCV_RejectsOversizedFile(t *testing.T) {
	f := newProfileFixture(WithUploadLimits(nil, 10))

	_, err := f.service.UploadCV(context.Background(), 7, "cv.pdf", strings.NewReader("01234567890"), 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Empty(t, f.objects.uploaded)
}

func TestUploadCV_UnknownEmployee(t *testing.T) {
	f := newProfileFixture()

	_, err := f.service.UploadCV(context.Background(), 8, "cv.pdf", strings.NewReader("x"), 1)
	assert.True(t, errors.Is(err, ErrEmployeeNotFound))
	assert.Empty(t, f.objects.uploaded)
}

func TestUploadCV_CleansUpWhenKeyNotRecorded(t *testing.T) {
	f := newProfileFixture()
	f.employees.setErr = errors.New("db down")

	_, err := f.service.UploadCV(context.Background(), 7, "cv.pdf", strings.NewReader("x"), 1)
	require.Error(t, err)
	require.Len(t, f.objects.uploaded, 1)
	assert.Equal(t, f.objects.uploaded, f.objects.deleted)
	assert.Empty(t, f.objects.objects)
}

func TestGetCV(t *testing.T) {
	f := newProfileFixture()
	key := "cv/7/abc.pdf"
	f.employees.employees[7].CVObjectKey = &key
	f.employees.employees[7].CVFilename = "ada.pdf"
	f.objects.objects["cvs/"+key] = []byte("pdf bytes")

	file, err := f.service.GetCV(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []byte("pdf bytes"), file.Data)
	assert.Equal(t, "ada.pdf", file.Filename)
	assert.Equal(t, "application/pdf", file.ContentType)
}

func TestGetCV_ObjectMissing(t *testing.T) {
	f := newProfileFixture()
	key := "cv/7/gone.pdf"
	f.employees.employees[7].CVObjectKey = &key

	_, err := f.service.GetCV(context.Background(), 7)
	assert.True(t, errors.Is(err, ErrCVNotFound))
}

func TestAnalyzeCV_NoCV(t *testing.T) {
	f := newProfileFixture()

	_, err := f.service.AnalyzeCV(context.Background(), 7)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCVNotFound))
	assert.Empty(t, f.decoder.formats)
}

func TestAnalyzeCV_DecodesExtractsAndReconciles(t *testing.T) {
	f := newProfileFixture()
	key := "cv/7/abc.docx"
	f.employees.employees[7].CVObjectKey = &key
	f.objects.objects["cvs/"+key] = []byte("docx bytes")

	result, err := f.service.AnalyzeCV(context.Background(), 7)
	require.NoError(t, err)

	assert.Equal(t, []types.DocumentFormat{types.FormatDOCX}, f.decoder.formats)
	assert.Equal(t, []string{"Skills: Go"}, f.extractor.texts)
	assert.Equal(t, sampleFragment(), result.Analysis)
	assert.Equal(t, 2, result.Applied.ExperienceRowsCreated)
	assert.Equal(t, []string{"Go", "SQL"}, f.profiles.profiles[7].skills)
}

func TestAnalyzeCV_DecodeFailureLeavesProfileUntouched(t *testing.T) {
	f := newProfileFixture()
	key := "cv/7/abc.pdf"
	f.employees.employees[7].CVObjectKey = &key
	f.objects.objects["cvs/"+key] = []byte("broken")
	f.decoder.err = &DecodeError{Format: types.FormatPDF, Err: errors.New("bad xref")}

	_, err := f.service.AnalyzeCV(context.Background(), 7)
	assert.True(t, errors.Is(err, ErrDecode))
	assert.Equal(t, 0, f.profiles.txCount)
}

func TestExtractText_DeletesStagedObject(t *testing.T) {
	f := newProfileFixture()

	text, err := f.service.ExtractText(context.Background(), "resume.pdf", strings.NewReader("pdf"), 3)
	require.NoError(t, err)
	assert.Equal(t, "Skills: Go", text)

	require.Len(t, f.objects.uploaded, 1)
	assert.True(t, strings.HasPrefix(f.objects.uploaded[0], "staging/staging/"))
	assert.Equal(t, f.objects.uploaded, f.objects.deleted)
	assert.Empty(t, f.objects.objects)
}

func TestExtractText_DeletesStagedObjectOnDecodeError(t *testing.T) {
	f := newProfileFixture()
	f.decoder.err = &DecodeError{Format: types.FormatDOCX, Err: errors.New("zip: not a valid zip file")}

	_, err := f.service.ExtractText(context.Background(), "resume.docx", strings.NewReader("junk"), 4)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecode))
	require.Len(t, f.objects.uploaded, 1)
	assert.Equal(t, f.objects.uploaded, f.objects.deleted)
}

func TestExtractText_UnsupportedFormat(t *testing.T) {
	f := newProfileFixture()

	_, err := f.service.ExtractText(context.Background(), "resume.odt", strings.NewReader("x"), 1)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	assert.Empty(t, f.objects.uploaded)
}

func TestExtractText_PayloadOverLimit(t *testing.T) {
	f := newProfileFixture(WithUploadLimits([]string{".PDF"}, 4))

	// 声明的大小合法，但实际内容超出上限
	_, err := f.service.ExtractText(context.Background(), "resume.pdf", strings.NewReader("0123456789"), 2)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Empty(t, f.objects.uploaded)
}
