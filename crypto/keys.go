package crypto

import (
	"fmt"
	"os"

	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	cmtos "github.com/cometbft/cometbft/libs/os"
	"github.com/cometbft/cometbft/privval"
)

// FileKey is an ed25519 signing key backed by a privval-format key file.
type FileKey struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

// LoadFileKey reads the key file at keyFilePath and exits the process when
// it is missing or malformed.
func LoadFileKey(keyFilePath string) *FileKey {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		cmtos.Exit(err.Error())
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		cmtos.Exit(fmt.Sprintf("Error reading key from %v: %v\n", keyFilePath, err))
	}

	return &FileKey{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}
}

// LoadOrGenFileKey loads the key file, generating a fresh ed25519 key pair
// on first use.
func LoadOrGenFileKey(keyFilePath, stateFilePath string) (*FileKey, error) {
	pv := privval.LoadOrGenFilePV(keyFilePath, stateFilePath)
	pubKey, err := pv.GetPubKey()
	if err != nil {
		return nil, err
	}
	return &FileKey{
		privateKey: pv.Key.PrivKey,
		publicKey:  pubKey,
	}, nil
}

func (k *FileKey) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *FileKey) Address() string {
	return k.publicKey.Address().String()
}

func (k *FileKey) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}
