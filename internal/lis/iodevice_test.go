package lis

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/yamaru/welllog-tool/internal/types"
	"github.com/yamaru/welllog-tool/test/fixtures"
)

// IODeviceTestSuite drives the LIS framer against the sample files.
type IODeviceTestSuite struct {
	suite.Suite
	tempDir string
	dev     *IODevice
}

func (suite *IODeviceTestSuite) SetupTest() {
	tempDir, err := os.MkdirTemp("", "iodevice_test")
	suite.Require().NoError(err)
	suite.tempDir = tempDir
}

func (suite *IODeviceTestSuite) TearDownTest() {
	if suite.dev != nil {
		suite.dev.Close()
		suite.dev = nil
	}
	if suite.tempDir != "" {
		os.RemoveAll(suite.tempDir)
	}
}

func (suite *IODeviceTestSuite) open(filename string) *IODevice {
	dev, err := Open(filename, 0, false)
	suite.Require().NoError(err)
	suite.dev = dev
	return dev
}

func (suite *IODeviceTestSuite) TestOpenEmptyFileFails() {
	filename := suite.tempDir + "/empty.lis"
	suite.Require().NoError(os.WriteFile(filename, nil, 0o644))

	_, err := Open(filename, 0, false)
	suite.Assert().ErrorIs(err, types.ErrEOF)
}

func (suite *IODeviceTestSuite) TestOpenPastEndFails() {
	filename, err := fixtures.CreateSampleLisFile(suite.tempDir)
	suite.Require().NoError(err)
	info, err := os.Stat(filename)
	suite.Require().NoError(err)

	_, err = Open(filename, info.Size(), false)
	suite.Assert().ErrorIs(err, types.ErrEOF)
}

func (suite *IODeviceTestSuite) TestIndexSampleFile() {
	filename, err := fixtures.CreateSampleLisFile(suite.tempDir)
	suite.Require().NoError(err)
	dev := suite.open(filename)

	index := dev.IndexRecords()
	suite.Assert().Equal(3, index.Size())
	suite.Require().Len(index.Explicits(), 1)
	suite.Require().Len(index.Implicits(), 2)

	dfsr := index.Explicits()[0]
	suite.Assert().Equal(TypeFormatSpec, dfsr.Type())
	suite.Assert().Equal(int64(0), dfsr.LTell)

	truncated, err := dev.Truncated()
	suite.Require().NoError(err)
	suite.Assert().False(truncated)

	size, err := dev.PSize()
	suite.Require().NoError(err)
	info, err := os.Stat(filename)
	suite.Require().NoError(err)
	suite.Assert().Equal(info.Size(), size)
}

func (suite *IODeviceTestSuite) TestIndexSkipsInterRecordPadding() {
	filename, rec2Tell, err := fixtures.CreatePaddedLisFile(suite.tempDir)
	suite.Require().NoError(err)
	dev := suite.open(filename)

	index := dev.IndexRecords()
	suite.Require().Len(index.Explicits(), 2)

	// The second record's ltell names the PRH itself, not the pad start.
	suite.Assert().Equal(rec2Tell, index.Explicits()[1].LTell)

	rec, err := dev.ReadRecord(index.Explicits()[1])
	suite.Require().NoError(err)
	suite.Assert().Equal([]byte{0x01, 0x02, 0x03, 0x04}, rec.Data)
}

func (suite *IODeviceTestSuite) TestIndexTruncatedFile() {
	filename, err := fixtures.CreateTruncatedLisFile(suite.tempDir)
	suite.Require().NoError(err)
	dev := suite.open(filename)

	index := dev.IndexRecords()
	// The good record is indexed; the truncated one is not.
	suite.Assert().Equal(1, index.Size())

	truncated, err := dev.Truncated()
	suite.Require().NoError(err)
	suite.Assert().True(truncated)

	_, err = dev.PSize()
	suite.Assert().ErrorIs(err, types.ErrTruncated)
}

func (suite *IODeviceTestSuite) TestReadRecordSkipsTrailers() {
	filename, err := fixtures.CreateTraileredLisFile(suite.tempDir)
	suite.Require().NoError(err)
	dev := suite.open(filename)

	index := dev.IndexRecords()
	suite.Require().Len(index.Explicits(), 1)
	info := index.Explicits()[0]
	suite.Assert().Equal(int64(12+10), info.Size)

	rec, err := dev.ReadRecord(info)
	suite.Require().NoError(err)
	suite.Assert().Equal(
		[]byte{0x10, 0x11, 0x12, 0x13, 0x14, 0x15, 0x16, 0x17}, rec.Data)
}

func (suite *IODeviceTestSuite) TestImplicitsOf() {
	filename, err := fixtures.CreateSampleLisFile(suite.tempDir)
	suite.Require().NoError(err)
	dev := suite.open(filename)

	index := dev.IndexRecords()
	dfsr := index.Explicits()[0]

	implicits, err := index.ImplicitsOf(dfsr.LTell)
	suite.Require().NoError(err)
	suite.Assert().Len(implicits, 2)

	_, err = index.ImplicitsOf(9999)
	suite.Assert().ErrorIs(err, types.ErrInvalidArgument)
}

func (suite *IODeviceTestSuite) TestUnindexedDeviceRefusesMetadata() {
	filename, err := fixtures.CreateSampleLisFile(suite.tempDir)
	suite.Require().NoError(err)
	dev := suite.open(filename)

	_, err = dev.PSize()
	suite.Assert().ErrorIs(err, types.ErrInvalidArgument)
	_, err = dev.Truncated()
	suite.Assert().ErrorIs(err, types.ErrInvalidArgument)
	suite.Assert().False(dev.Indexed())
}

func TestIODeviceTestSuite(t *testing.T) {
	suite.Run(t, new(IODeviceTestSuite))
}
