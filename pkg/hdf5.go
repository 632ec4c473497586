package slicer

import (
	hdf5 "github.com/jmbenlloch/go-hdf5"
)

// Row layouts of the .slc tables. Every record row carries its event number
// so variable-length per-event sequences fit extendable 1-D tables.

type EventDataHDF5 struct {
	evt_number int32
	npe        int32
}

type RunInfoHDF5 struct {
	run_number int32
	nchannels  int32
	sampling   float64
}

type PEDataHDF5 struct {
	evt_number int32
	channel    int32
	time       float64
	amplitude  float64
}

type ZLEDataHDF5 struct {
	evt_number int32
	channel    int32
	start      int32
	length     int32
	integral   float64
}

type HitDataHDF5 struct {
	evt_number int32
	zle_id     int32
	sample     int32
	integral   float64
	max        float64
}

type WFSampleHDF5 struct {
	evt_number int32
	sample     int32
	value      float64
}

func openFile(fname string) *hdf5.File {
	f, err := hdf5.CreateFile(fname, hdf5.F_ACC_TRUNC)
	if err != nil {
		panic(&ErrOpenFile{Filename: fname, Err: err})
	}
	return f
}

func createGroup(file *hdf5.File, groupName string) *hdf5.Group {
	g, err := file.CreateGroup(groupName)
	if err != nil {
		panic(&ErrCreateGroup{GroupName: groupName, Err: err})
	}
	return g
}

func createTable(group *hdf5.Group, name string, datatype interface{}) *hdf5.Dataset {
	dims := []uint{0}
	unlimitedDims := -1 // H5S_UNLIMITED is -1L
	maxDims := []uint{uint(unlimitedDims)}
	file_space, err := hdf5.CreateSimpleDataspace(dims, maxDims)
	if err != nil {
		panic(&ErrCreateTable{TableName: name, Err: err})
	}

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		panic(&ErrCreateTable{TableName: name, Err: err})
	}
	chunks := []uint{32768}
	plist.SetChunk(chunks)
	plist.SetDeflate(configuration.CompressionLevel)

	dtype, err := hdf5.NewDatatypeFromValue(datatype)
	if err != nil {
		panic(&ErrCreateTable{TableName: name, Err: err})
	}

	dset, err := group.CreateDatasetWith(name, dtype, file_space, plist)
	if err != nil {
		panic(&ErrCreateTable{TableName: name, Err: err})
	}
	return dset
}

func writeEntryToTable[T any](dataset *hdf5.Dataset, data T, rowCounter int) {
	array := []T{data}
	writeArrayToTable(dataset, &array, rowCounter)
}

func writeArrayToTable[T any](dataset *hdf5.Dataset, data *[]T, rowCounter int) {
	length := uint(len(*data))
	if length == 0 {
		return
	}
	dims := []uint{length}
	dataspace, err := hdf5.CreateSimpleDataspace(dims, nil)
	if err != nil {
		panic(err)
	}

	// extend
	rowsInFile := uint(rowCounter)
	newsize := []uint{rowsInFile + length}
	dataset.Resize(newsize)
	filespace := dataset.Space()

	start := []uint{rowsInFile}
	count := []uint{length}
	filespace.SelectHyperslab(start, nil, count, nil)

	err = dataset.WriteSubset(data, dataspace, filespace)
	if err != nil {
		panic(err)
	}

	dataspace.Close()
	filespace.Close()
}
