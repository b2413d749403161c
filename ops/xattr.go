package ops

func Getxattr(path string, name string, data []byte) (int, error) {
	return getxattr(path, name, data)
}

func Setxattr(path string, name string, data []byte, flags int) error {
	return setxattr(path, name, data, flags)
}
