package dlis

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/yamaru/welllog-tool/internal/reader"
	"github.com/yamaru/welllog-tool/internal/types"
	"github.com/yamaru/welllog-tool/test/fixtures"
)

// IndexTestSuite drives the signature searches and the offset index over
// the sample DLIS files.
type IndexTestSuite struct {
	suite.Suite
	tempDir string
}

func (suite *IndexTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "index_test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *IndexTestSuite) TearDownTest() {
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

// openLogical opens the sample file past its SUL with visible-record
// framing applied.
func (suite *IndexTestSuite) openLogical(filename string) *reader.Stream {
	src, err := reader.Open(filename, 0)
	suite.Require().NoError(err)
	suite.Require().NoError(src.Seek(80))
	framed, err := reader.WrapRP66(src)
	suite.Require().NoError(err)
	return reader.NewStream(framed)
}

func (suite *IndexTestSuite) TestFindSUL() {
	filename, err := fixtures.CreateSampleDlisFile(suite.tempDir)
	suite.Require().NoError(err)

	src, err := reader.Open(filename, 0)
	suite.Require().NoError(err)
	stream := reader.NewStream(src)
	defer stream.Close()

	offset, err := FindSUL(stream)
	suite.Require().NoError(err)
	suite.Assert().Equal(int64(0), offset)
}

func (suite *IndexTestSuite) TestFindSULNotFound() {
	filename := suite.tempDir + "/nosul.bin"
	suite.Require().NoError(os.WriteFile(filename, make([]byte, 300), 0o644))

	src, err := reader.Open(filename, 0)
	suite.Require().NoError(err)
	stream := reader.NewStream(src)
	defer stream.Close()

	_, err = FindSUL(stream)
	suite.Assert().ErrorIs(err, types.ErrNotFound)
}

func (suite *IndexTestSuite) TestFindVRL() {
	filename, err := fixtures.CreateSampleDlisFile(suite.tempDir)
	suite.Require().NoError(err)

	src, err := reader.Open(filename, 0)
	suite.Require().NoError(err)
	stream := reader.NewStream(src)
	defer stream.Close()

	offset, err := FindVRL(stream, 80)
	suite.Require().NoError(err)
	suite.Assert().Equal(int64(80), offset)

	_, err = FindVRL(stream, -1)
	suite.Assert().ErrorIs(err, types.ErrInvalidArgument)
}

func (suite *IndexTestSuite) TestHasTapeMark() {
	plain, err := fixtures.CreateSampleDlisFile(suite.tempDir)
	suite.Require().NoError(err)
	taped, err := fixtures.CreateTapeImageDlisFile(suite.tempDir)
	suite.Require().NoError(err)

	src, err := reader.Open(plain, 0)
	suite.Require().NoError(err)
	stream := reader.NewStream(src)
	tm, err := HasTapeMark(stream)
	suite.Require().NoError(err)
	suite.Assert().False(tm)
	stream.Close()

	src, err = reader.Open(taped, 0)
	suite.Require().NoError(err)
	stream = reader.NewStream(src)
	tm, err = HasTapeMark(stream)
	suite.Require().NoError(err)
	suite.Assert().True(tm)
	stream.Close()
}

func (suite *IndexTestSuite) TestFindOffsets() {
	filename, err := fixtures.CreateSampleDlisFile(suite.tempDir)
	suite.Require().NoError(err)

	stream := suite.openLogical(filename)
	defer stream.Close()

	offsets, err := FindOffsets(stream)
	suite.Require().NoError(err)
	suite.Assert().Len(offsets.Explicits, 1)
	suite.Assert().Len(offsets.Implicits, 2)
	suite.Assert().Empty(offsets.Broken)

	// Entries are disjoint and in file order.
	suite.Assert().Equal(int64(0), offsets.Explicits[0])
	suite.Require().Len(offsets.Implicits, 2)
	suite.Assert().Less(offsets.Implicits[0], offsets.Implicits[1])
	suite.Assert().Greater(offsets.Implicits[0], offsets.Explicits[0])
}

func (suite *IndexTestSuite) TestFindOffsetsTapeImage() {
	filename, err := fixtures.CreateTapeImageDlisFile(suite.tempDir)
	suite.Require().NoError(err)

	src, err := reader.Open(filename, 0)
	suite.Require().NoError(err)
	tif, err := reader.WrapTapeImage(src)
	suite.Require().NoError(err)
	suite.Require().NoError(tif.Seek(80))
	framed, err := reader.WrapRP66(tif)
	suite.Require().NoError(err)
	stream := reader.NewStream(framed)
	defer stream.Close()

	offsets, err := FindOffsets(stream)
	suite.Require().NoError(err)
	suite.Assert().Len(offsets.Explicits, 1)
	suite.Assert().Len(offsets.Implicits, 1)
}

func (suite *IndexTestSuite) TestFindFdata() {
	filename, err := fixtures.CreateSampleDlisFile(suite.tempDir)
	suite.Require().NoError(err)

	stream := suite.openLogical(filename)
	defer stream.Close()

	offsets, err := FindOffsets(stream)
	suite.Require().NoError(err)

	fdata, err := FindFdata(stream, offsets.Implicits)
	suite.Require().NoError(err)
	suite.Require().Len(fdata, 1)

	tells, ok := fdata["T.FRAME-I.800T-O.0-C.0"]
	suite.Require().True(ok)
	suite.Assert().Equal(offsets.Implicits, tells)
}

func TestIndexTestSuite(t *testing.T) {
	suite.Run(t, new(IndexTestSuite))
}
