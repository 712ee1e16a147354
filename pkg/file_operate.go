package pkg

import (
	"io"
	"os"

	"github.com/pkg/errors"
)

// CheckFileExist 检查文件是否存在
func CheckFileExist(filePath string) (bool, error) {
	_, err := os.Lstat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadInput 读取输入, 路径为空或 "-" 时读取 stdin
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(stdin)
		return data, errors.Wrap(err, "read stdin")
	}
	exist, err := CheckFileExist(path)
	if err != nil {
		return nil, errors.Wrap(err, "check file exist")
	}
	if !exist {
		return nil, errors.Errorf("input file not exist: %s", path)
	}
	data, err := os.ReadFile(path)
	return data, errors.Wrapf(err, "read %s", path)
}

// WriteOutput 写出结果, 路径为空时写到 stdout
func WriteOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == "-" {
		_, err := stdout.Write(data)
		return err
	}
	return errors.Wrapf(os.WriteFile(path, data, 0o644), "write %s", path)
}
