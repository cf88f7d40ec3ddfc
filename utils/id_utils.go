package utils

import (
	"github.com/ipfs/go-cid"
	jsoniter "github.com/json-iterator/go"
	"github.com/multiformats/go-multicodec"
	"github.com/multiformats/go-multihash"
	uuid "github.com/satori/go.uuid"
	"golang.org/x/xerrors"
)

func GenerateDeployId() string {
	return uuid.NewV4().String()
}

func IsDeployId(content string) bool {
	_, err := uuid.FromString(content)
	return err == nil
}

func Marshal(obj interface{}) ([]byte, error) {
	b, err := jsoniter.Marshal(obj)
	if err != nil {
		return nil, xerrors.Errorf(err.Error())
	}

	return b, nil
}

func UnMarshal(data []byte, obj interface{}) error {
	err := jsoniter.Unmarshal(data, obj)
	if err != nil {
		return xerrors.Errorf(err.Error())
	}

	return nil
}

// CalculateCid derives the CIDv1 (raw codec, sha2-256) of the given bytes.
// Cache keys and blob identities are both built on it.
func CalculateCid(content []byte) (cid.Cid, error) {
	pref := cid.Prefix{
		Version:  1,
		Codec:    uint64(multicodec.Raw),
		MhType:   multihash.SHA2_256,
		MhLength: -1, // default length
	}

	contentCid, err := pref.Sum(content)
	if err != nil {
		return cid.Undef, err
	}

	return contentCid, nil
}
