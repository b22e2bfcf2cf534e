package lis

import (
	"encoding/binary"
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/yamaru/welllog-tool/internal/types"
	"github.com/yamaru/welllog-tool/test/fixtures"
)

func TestPackFLen(t *testing.T) {
	src, dst, err := PackFLen("fi")
	require.NoError(t, err)
	assert.Equal(t, 6, src)
	assert.Equal(t, 6, dst)

	// f16 entries widen from 2 source bytes to 4 destination bytes.
	src, dst, err = PackFLen("esb")
	require.NoError(t, err)
	assert.Equal(t, 4, src)
	assert.Equal(t, 6, dst)

	_, _, err = PackFLen("fx")
	assert.ErrorIs(t, err, types.ErrParse)
}

func TestPackFrame(t *testing.T) {
	src := fixtures.SampleFrame()
	dst := make([]byte, 6)

	read, wrote, err := PackFrame("fi", src, dst)
	require.NoError(t, err)
	assert.Equal(t, 6, read)
	assert.Equal(t, 6, wrote)

	f := math.Float32frombits(binary.LittleEndian.Uint32(dst[0:4]))
	assert.Equal(t, float32(153.0), f)
	assert.Equal(t, int16(256), int16(binary.LittleEndian.Uint16(dst[4:6])))
}

func TestSliceBufferResize(t *testing.T) {
	buf := NewSliceBuffer(6)
	buf.Resize(2)
	assert.Len(t, buf.Bytes(), 12)

	copy(buf.Bytes(), []byte{1, 2, 3})
	buf.Resize(4)
	assert.Len(t, buf.Bytes(), 24)
	assert.Equal(t, []byte{1, 2, 3}, buf.Bytes()[:3])

	buf.Resize(1)
	assert.Len(t, buf.Bytes(), 6)
}

// FDataTestSuite packs frames from the sample LIS file.
type FDataTestSuite struct {
	suite.Suite
	tempDir string
	dev     *IODevice
	index   *RecordIndex
	dfsr    RecordInfo
}

func (suite *FDataTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "fdata_test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir

	filename, err := fixtures.CreateSampleLisFile(tempDir)
	suite.Require().NoError(err)

	suite.dev, err = Open(filename, 0, false)
	suite.Require().NoError(err)

	suite.index = suite.dev.IndexRecords()
	suite.Require().Len(suite.index.Explicits(), 1)
	suite.dfsr = suite.index.Explicits()[0]
}

func (suite *FDataTestSuite) TearDownTest() {
	if suite.dev != nil {
		suite.dev.Close()
	}
	os.RemoveAll(suite.tempDir)
}

func (suite *FDataTestSuite) TestReadFData() {
	rec, err := suite.dev.ReadRecord(suite.dfsr)
	suite.Require().NoError(err)
	dfs, err := ParseDFSR(&rec)
	suite.Require().NoError(err)
	fmtstr, err := FmtStr(&dfs)
	suite.Require().NoError(err)

	srcSize, dstSize, err := PackFLen(fmtstr)
	suite.Require().NoError(err)
	suite.Assert().Equal(6, srcSize)

	buf := NewSliceBuffer(dstSize)
	rows, err := ReadFData(fmtstr, suite.dev, suite.index, suite.dfsr, dstSize, buf)
	suite.Require().NoError(err)

	// Two records of two frames each: the one-row-per-record guess doubles
	// once and ends exactly on the true count.
	suite.Assert().Equal(4, rows)
	suite.Require().Len(buf.Bytes(), 4*dstSize)

	for row := 0; row < rows; row++ {
		out := buf.Bytes()[row*dstSize:]
		f := math.Float32frombits(binary.LittleEndian.Uint32(out[0:4]))
		suite.Assert().Equal(float32(153.0), f)
		suite.Assert().Equal(int16(256), int16(binary.LittleEndian.Uint16(out[4:6])))
	}
}

func (suite *FDataTestSuite) TestReadFDataRejectsSmallItemsize() {
	buf := NewSliceBuffer(2)
	_, err := ReadFData("fi", suite.dev, suite.index, suite.dfsr, 2, buf)
	suite.Assert().ErrorIs(err, types.ErrInvalidArgument)
}

func (suite *FDataTestSuite) TestReadFDataCorruptRecord() {
	// A format wider than the record payload must fail, not read past the
	// end.
	fmtstr := "fffff" // 20 source bytes per frame; records hold 12
	_, dstSize, err := PackFLen(fmtstr)
	suite.Require().NoError(err)

	buf := NewSliceBuffer(dstSize)
	_, err = ReadFData(fmtstr, suite.dev, suite.index, suite.dfsr, dstSize, buf)
	suite.Assert().ErrorIs(err, types.ErrParse)
}

func TestFDataTestSuite(t *testing.T) {
	suite.Run(t, new(FDataTestSuite))
}
